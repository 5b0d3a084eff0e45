package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_ActivationSurge(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		assert.Empty(t, bd.Check(WindowStats{WindowEndTick: int32(i * 600), Promotions: 3, Live: 10}))
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 3000, Promotions: 12, Live: 20})
	assert.True(t, hasBookmark(bookmarks, BookmarkActivationSurge))
}

func TestBookmarkDetector_SurgeNeedsVolume(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 600), Promotions: 1})
	}

	// 4x the average but below the absolute floor
	bookmarks := bd.Check(WindowStats{WindowEndTick: 3000, Promotions: 4})
	assert.False(t, hasBookmark(bookmarks, BookmarkActivationSurge))
}

func TestBookmarkDetector_MassRetirement(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 4; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 600), Retirements: 2, Live: 10})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 2400, Retirements: 9, Live: 3})
	assert.True(t, hasBookmark(bookmarks, BookmarkMassRetirement))
}

func TestBookmarkDetector_FrontCleared(t *testing.T) {
	bd := NewBookmarkDetector(10)

	bd.Check(WindowStats{WindowEndTick: 600, Live: 8})
	bd.Check(WindowStats{WindowEndTick: 1200, Live: 4})

	bookmarks := bd.Check(WindowStats{WindowEndTick: 1800, Live: 0})
	assert.True(t, hasBookmark(bookmarks, BookmarkFrontCleared))

	// Fires once until the population comes back
	bookmarks = bd.Check(WindowStats{WindowEndTick: 2400, Live: 0})
	assert.False(t, hasBookmark(bookmarks, BookmarkFrontCleared))
}

func TestBookmarkDetector_StableFront(t *testing.T) {
	bd := NewBookmarkDetector(10)

	fired := 0
	for i := 0; i < 12; i++ {
		if hasBookmark(bd.Check(WindowStats{WindowEndTick: int32(i * 600), Live: 20}), BookmarkStableFront) {
			fired++
		}
	}
	assert.Equal(t, 1, fired)
}
