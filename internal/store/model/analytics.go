package model

import "time"

// JobMetrics are the derived per-job analytics. Derivation is a pure
// function of the record snapshot; callers should check the record status,
// since Open and Pending records yield partial values.
type JobMetrics struct {
	DurationSeconds float64
	TaskCount       int
	FailedTasks     int
	SuccessRate     float64
	Result          string
}

// Metrics derives the analytics for this record.
func (r *JobRecord) Metrics() JobMetrics {
	m := JobMetrics{Result: normalizeResult(r.Result)}

	if r.StartTime != nil && r.EndTime != nil {
		d := r.EndTime.Sub(*r.StartTime).Seconds()
		if d < 0 {
			d = 0
		}
		m.DurationSeconds = d
	}

	tasks := r.TaskOutcomes()
	m.TaskCount = len(tasks)
	for _, t := range tasks {
		if !t.Successful {
			m.FailedTasks++
		}
	}

	// A job with no tasks is vacuously fully successful.
	if m.TaskCount == 0 {
		m.SuccessRate = 100.0
	} else {
		m.SuccessRate = 100.0 * float64(m.TaskCount-m.FailedTasks) / float64(m.TaskCount)
	}

	return m
}

// JobMetricsSnapshot pairs a record's identity with its derived metrics,
// for inclusion in a daily summary.
type JobMetricsSnapshot struct {
	JobID   int64
	User    string
	Metrics JobMetrics
}

// DailySummary aggregates the closed jobs whose end time falls on one
// calendar date.
type DailySummary struct {
	Date               time.Time
	TotalJobs          int
	AvgDurationSeconds float64
	AvgSuccessRate     float64
	Jobs               []JobMetricsSnapshot
}

// NewDailySummary folds per-job metrics over the given records. An empty
// input yields a zero-valued summary, never an error.
func NewDailySummary(date time.Time, records []JobRecord) DailySummary {
	summary := DailySummary{
		Date: date,
		Jobs: make([]JobMetricsSnapshot, 0, len(records)),
	}

	var totalDuration, totalSuccessRate float64
	for i := range records {
		m := records[i].Metrics()
		totalDuration += m.DurationSeconds
		totalSuccessRate += m.SuccessRate
		summary.Jobs = append(summary.Jobs, JobMetricsSnapshot{
			JobID:   records[i].JobID,
			User:    records[i].User,
			Metrics: m,
		})
	}

	summary.TotalJobs = len(summary.Jobs)
	if summary.TotalJobs > 0 {
		summary.AvgDurationSeconds = totalDuration / float64(summary.TotalJobs)
		summary.AvgSuccessRate = totalSuccessRate / float64(summary.TotalJobs)
	}

	return summary
}
