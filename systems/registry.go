package systems

// SystemInfo describes a simulation system for UI display.
type SystemInfo struct {
	ID   string // matches the perf phase name
	Name string // display name
}

// SystemRegistry maps perf phase names to display names so the viewer and
// the perf collector agree on what each system is called.
type SystemRegistry struct {
	byID map[string]SystemInfo
}

// NewSystemRegistry creates a registry with every system of the engine tick.
func NewSystemRegistry() *SystemRegistry {
	r := &SystemRegistry{byID: make(map[string]SystemInfo)}
	for _, info := range []SystemInfo{
		{ID: "discover", Name: "Discover"},
		{ID: "activate", Name: "Activate"},
		{ID: "restlessness", Name: "Restlessness"},
		{ID: "decision", Name: "Decision"},
		{ID: "movement", Name: "Movement"},
		{ID: "retire", Name: "Retire"},
		{ID: "telemetry", Name: "Telemetry"},
	} {
		r.Register(info)
	}
	return r
}

// Register adds or replaces a system.
func (r *SystemRegistry) Register(info SystemInfo) {
	r.byID[info.ID] = info
}

// GetName returns the display name for a system ID, or the ID itself if
// the system is unknown.
func (r *SystemRegistry) GetName(id string) string {
	if info, ok := r.byID[id]; ok {
		return info.Name
	}
	return id
}
