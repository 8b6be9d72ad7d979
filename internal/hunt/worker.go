package hunt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/osintkit/tubetrail/internal/storage"
)

// JobTypeHunt is the queue type for collection-run jobs.
const JobTypeHunt = "hunt"

// Payload is the JSON body of a hunt job.
type Payload struct {
	Keyword     string `json:"keyword"`
	Limit       int    `json:"limit,omitempty"`
	MaxComments int    `json:"max_comments,omitempty"`
	Note        string `json:"note,omitempty"`
}

// Enqueue queues a collection run for the worker and returns the job ID.
func Enqueue(store *storage.Store, p Payload) (string, error) {
	if p.Keyword == "" {
		return "", fmt.Errorf("keyword is required")
	}
	body, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshalling hunt payload: %w", err)
	}
	job := storage.Job{
		ID:          uuid.New().String(),
		Type:        JobTypeHunt,
		PayloadJSON: string(body),
		MaxAttempts: 1, // a failed run leaves a partial session; retrying would open another
	}
	if err := store.EnqueueJob(job); err != nil {
		return "", fmt.Errorf("enqueueing hunt job: %w", err)
	}
	return job.ID, nil
}

// Worker processes hunt jobs from the SQLite job queue in serve mode.
// Jobs run one at a time, which keeps storage writes serialized.
type Worker struct {
	store  *storage.Store
	runner *Runner
	poll   time.Duration
	logger *slog.Logger
}

// NewWorker creates a Worker. If pollInterval is <= 0, it defaults to 2s.
func NewWorker(store *storage.Store, runner *Runner, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &Worker{
		store:  store,
		runner: runner,
		poll:   pollInterval,
		logger: slog.Default(),
	}
}

// Run polls for jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		done, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("worker iteration failed", "error", err)
		}
		if done {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.poll):
		}
	}
}

// RunOnce claims and processes a single hunt job. Returns true if a job was
// processed, regardless of its outcome.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.store.ClaimNextJob([]string{JobTypeHunt})
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	if err := w.processJob(ctx, job); err != nil {
		w.logger.Warn("hunt job failed", "job_id", job.ID, "error", err)
		if failErr := w.store.FailJob(job.ID, err.Error()); failErr != nil {
			w.logger.Error("failed to mark job as failed", "job_id", job.ID, "error", failErr)
		}
		return true, nil
	}

	if err := w.store.CompleteJob(job.ID); err != nil {
		return true, fmt.Errorf("completing job %s: %w", job.ID, err)
	}
	return true, nil
}

func (w *Worker) processJob(ctx context.Context, job *storage.Job) error {
	var p Payload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &p); err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}
	if p.Keyword == "" {
		return fmt.Errorf("hunt job %s has no keyword", job.ID)
	}

	res, err := w.runner.Run(ctx, p.Keyword, Options{
		Limit:       p.Limit,
		MaxComments: p.MaxComments,
		Note:        p.Note,
	})
	if err != nil {
		return err
	}

	w.logger.Info("hunt job complete",
		"job_id", job.ID, "session_id", res.SessionID,
		"videos", res.Videos, "contacts", res.Contacts, "failures", res.Failures)
	return nil
}
