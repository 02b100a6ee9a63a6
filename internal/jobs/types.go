package jobs

import (
	"github.com/riverqueue/river"
)

const (
	DefaultQueue  = "analytics"
	MaxJobRetries = 3
	JobKind       = "process_job"
)

// ProcessJobArgs identifies one job whose pending event logs should be run
// through analytics processing. Stored in river_job.args as JSON.
type ProcessJobArgs struct {
	JobID int64 `json:"job_id"`
}

func (ProcessJobArgs) Kind() string {
	return JobKind
}

func (ProcessJobArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       DefaultQueue,
		MaxAttempts: MaxJobRetries,
	}
}
