package recorder

import "time"

const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// RunRecord is the outcome of one dataset pipeline run.
type RunRecord struct {
	Dataset    string
	Status     string
	Stage      string // stage that failed: fetch, normalize, csv or upload
	Rows       int
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Recorder persists run outcomes for later inspection.
type Recorder interface {
	RecordRun(rec *RunRecord) error
	Close() error
}
