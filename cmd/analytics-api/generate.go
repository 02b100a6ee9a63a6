package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	api "github.com/sparkops/job-analytics/api/v1alpha1"
)

var (
	generateJobs       int
	generateStartID    int64
	generateOutFile    string
	generateTargetURL  string
	generateOutOfOrder float64
	generateDuplicates float64
	generateSeed       int64
)

var sampleUsers = []string{
	"data_engineer_1@example.com",
	"data_scientist_2@example.com",
	"ml_engineer@example.com",
	"analyst@example.com",
	"data_ops@example.com",
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate sample lifecycle events",
	Long: `Generate emits a stream of realistic job lifecycle events as JSON lines,
including out-of-order and duplicated events, either to a file or straight
into a running service.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rng := rand.New(rand.NewSource(generateSeed))

		var sampleEvents []api.Event
		for i := 0; i < generateJobs; i++ {
			sampleEvents = append(sampleEvents, generateJobLifecycle(rng, generateStartID+int64(i))...)
		}

		if generateTargetURL != "" {
			return postEvents(generateTargetURL, sampleEvents)
		}
		return writeEvents(generateOutFile, sampleEvents)
	},
}

func init() {
	generateCmd.Flags().IntVar(&generateJobs, "jobs", 10, "number of job lifecycles to generate")
	generateCmd.Flags().Int64Var(&generateStartID, "start-id", 1, "first job id")
	generateCmd.Flags().StringVar(&generateOutFile, "out", "-", "output file, - for stdout")
	generateCmd.Flags().StringVar(&generateTargetURL, "url", "", "POST events to a running service instead of writing them")
	generateCmd.Flags().Float64Var(&generateOutOfOrder, "out-of-order", 0.2, "fraction of jobs whose end arrives before the start")
	generateCmd.Flags().Float64Var(&generateDuplicates, "duplicates", 0.1, "fraction of events emitted twice")
	generateCmd.Flags().Int64Var(&generateSeed, "seed", time.Now().UnixNano(), "rng seed")
}

func ptr[T any](v T) *T { return &v }

// generateJobLifecycle builds one complete lifecycle: start, a handful of
// task ends, end. Some lifecycles are reordered and some events duplicated
// to exercise the reconciliation paths.
func generateJobLifecycle(rng *rand.Rand, jobID int64) []api.Event {
	user := sampleUsers[rng.Intn(len(sampleUsers))]
	start := time.Now().UTC().Add(-time.Duration(rng.Intn(24*60)) * time.Minute).Truncate(time.Second)
	duration := time.Duration(1+rng.Intn(30)) * time.Minute
	end := start.Add(duration)
	numTasks := 1 + rng.Intn(20)

	jobEvents := []api.Event{{
		Event:     api.EventKindJobStart,
		JobID:     ptr(jobID),
		Timestamp: start.Format(time.RFC3339),
		User:      ptr(user),
	}}

	taskInterval := duration / time.Duration(numTasks)
	for i := 0; i < numTasks; i++ {
		jobEvents = append(jobEvents, api.Event{
			Event:      api.EventKindTaskEnd,
			JobID:      ptr(jobID),
			Timestamp:  start.Add(taskInterval * time.Duration(i)).Format(time.RFC3339),
			TaskID:     ptr(fmt.Sprintf("task_%d_%03d", jobID, i)),
			DurationMS: ptr(int64(500 + rng.Intn(14500))),
			Successful: ptr(rng.Float64() > 0.1),
		})
	}

	result := api.JobResultSucceeded
	if rng.Float64() < 0.2 {
		result = api.JobResultFailed
	}
	jobEvents = append(jobEvents, api.Event{
		Event:          api.EventKindJobEnd,
		JobID:          ptr(jobID),
		Timestamp:      end.Format(time.RFC3339),
		CompletionTime: ptr(end.Format(time.RFC3339)),
		JobResult:      ptr(result),
	})

	if rng.Float64() < generateOutOfOrder {
		// end arrives first
		last := len(jobEvents) - 1
		jobEvents[0], jobEvents[last] = jobEvents[last], jobEvents[0]
	}

	if rng.Float64() < generateDuplicates {
		jobEvents = append(jobEvents, jobEvents[rng.Intn(len(jobEvents))])
	}

	return jobEvents
}

func writeEvents(outFile string, sampleEvents []api.Event) error {
	out := os.Stdout
	if outFile != "-" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	for _, ev := range sampleEvents {
		if err := enc.Encode(ev); err != nil {
			return err
		}
	}
	return nil
}

func postEvents(baseURL string, sampleEvents []api.Event) error {
	client := &http.Client{Timeout: 10 * time.Second}

	for _, ev := range sampleEvents {
		body, err := json.Marshal(ev)
		if err != nil {
			return err
		}

		resp, err := client.Post(baseURL+"/api/v1/events", "application/json", bytes.NewReader(body))
		if err != nil {
			return err
		}
		_ = resp.Body.Close()

		if resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("service rejected event for job %d: %s", *ev.JobID, resp.Status)
		}
	}

	fmt.Printf("ingested %d events\n", len(sampleEvents))
	return nil
}
