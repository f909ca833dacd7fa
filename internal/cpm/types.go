package cpm

// Result holds the complete critical path analysis.
type Result struct {
	Schedules    map[string]*Schedule
	CriticalPath []string // ordered task ids on the critical path
	TotalHours   float64
	Waves        []Wave // parallelizable groups
	TopoOrder    []string
}

// Schedule holds the scheduling info for a single task. Times are
// cumulative estimated hours from project start.
type Schedule struct {
	TaskID     string
	ES, EF     float64 // earliest start/finish
	LS, LF     float64 // latest start/finish
	Slack      float64
	IsCritical bool
	Wave       int
}

// Wave is a group of tasks whose prerequisites all finish by the same
// time, so they can execute in parallel.
type Wave struct {
	Index      int
	TaskIDs    []string
	IsCritical bool
}
