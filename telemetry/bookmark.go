package telemetry

import (
	"fmt"

	"go.uber.org/zap"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkActivationSurge BookmarkType = "activation_surge"
	BookmarkMassRetirement  BookmarkType = "mass_retirement"
	BookmarkFrontCleared    BookmarkType = "front_cleared"
	BookmarkStableFront     BookmarkType = "stable_front"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark.
func (b Bookmark) LogBookmark(logger *zap.Logger) {
	logger.Info("bookmark",
		zap.String("type", string(b.Type)),
		zap.Int32("tick", b.Tick),
		zap.String("description", b.Description),
	)
}

// BookmarkDetector detects interesting moments in the danger population.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	recentLivePeak     int
	stableWindowsCount int
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkSurge(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkMassRetirement(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkFrontCleared(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkStableFront(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)

	if stats.Live > bd.recentLivePeak {
		bd.recentLivePeak = stats.Live
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

// spike reports whether current exceeds twice the rolling mean of field.
func (bd *BookmarkDetector) spike(current int, field func(WindowStats) int) (float64, bool) {
	history := bd.getHistory()
	if len(history) < 3 {
		return 0, false
	}
	var total int
	for _, h := range history {
		total += field(h)
	}
	avg := float64(total) / float64(len(history))
	if avg == 0 {
		return 0, false
	}
	return avg, float64(current) > avg*2
}

func (bd *BookmarkDetector) checkSurge(stats WindowStats) *Bookmark {
	avg, ok := bd.spike(stats.Promotions, func(w WindowStats) int { return w.Promotions })
	if !ok || stats.Promotions < 5 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkActivationSurge,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%d promotions is %.1fx average (%.1f)", stats.Promotions, float64(stats.Promotions)/avg, avg),
	}
}

func (bd *BookmarkDetector) checkMassRetirement(stats WindowStats) *Bookmark {
	avg, ok := bd.spike(stats.Retirements, func(w WindowStats) int { return w.Retirements })
	if !ok || stats.Retirements < 5 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkMassRetirement,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%d retirements is %.1fx average (%.1f)", stats.Retirements, float64(stats.Retirements)/avg, avg),
	}
}

func (bd *BookmarkDetector) checkFrontCleared(stats WindowStats) *Bookmark {
	if bd.recentLivePeak == 0 || stats.Live > 0 {
		return nil
	}
	oldPeak := bd.recentLivePeak
	bd.recentLivePeak = 0
	return &Bookmark{
		Type:        BookmarkFrontCleared,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("No live dangers left after peak of %d", oldPeak),
	}
}

func (bd *BookmarkDetector) checkStableFront(stats WindowStats) *Bookmark {
	if stats.Live < 3 {
		bd.stableWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	recent := history[len(history)-4:]
	var sum float64
	for _, h := range recent {
		sum += float64(h.Live)
	}
	mean := sum / 4

	var variance float64
	for _, h := range recent {
		d := float64(h.Live) - mean
		variance += d * d
	}
	variance /= 4

	// CV^2 < 0.04 means CV < 0.2
	if mean > 0 && variance/(mean*mean) < 0.04 {
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == 5 {
		return &Bookmark{
			Type:        BookmarkStableFront,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Stable front of %d live dangers over 5+ windows", stats.Live),
		}
	}
	return nil
}
