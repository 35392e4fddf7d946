package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Abraxas-365/screener/pkg/logx"
	"github.com/Abraxas-365/screener/screening"
	"github.com/Abraxas-365/screener/screening/screeningsrv"
)

type ScreeningWorker struct {
	service *screeningsrv.Service
	queue   screening.JobQueue
	workers int
}

func NewScreeningWorker(service *screeningsrv.Service, queue screening.JobQueue, workers int) *ScreeningWorker {
	return &ScreeningWorker{
		service: service,
		queue:   queue,
		workers: workers,
	}
}

func (w *ScreeningWorker) Start(ctx context.Context) {
	logx.Infof("Starting %d screening workers", w.workers)

	// Start delayed job mover
	go w.moveDelayedJobs(ctx)

	// Start stranded job sweeper
	go w.recoverStrandedJobs(ctx)

	// Start worker pool
	for i := 0; i < w.workers; i++ {
		go w.processJobs(ctx, i)
	}
}

func (w *ScreeningWorker) processJobs(ctx context.Context, workerID int) {
	logx.Infof("Worker %d started", workerID)

	for {
		select {
		case <-ctx.Done():
			logx.Infof("Worker %d stopping", workerID)
			return
		default:
			// Dequeue with 5 second timeout
			data, err := w.queue.Dequeue(ctx, 5*time.Second)
			if err != nil {
				logx.Errorf("Worker %d dequeue error: %v", workerID, err)
				continue
			}

			// Nil data means the wait timed out with nothing queued
			if len(data) == 0 {
				continue
			}

			var job screening.ScreeningJob
			if err := json.Unmarshal(data, &job); err != nil {
				logx.Errorf("Worker %d unmarshal error: %v (data: %s)", workerID, err, string(data))
				continue
			}

			logx.Infof("Worker %d processing job: %s", workerID, job.ID)
			if err := w.service.ProcessScreeningJob(ctx, &job); err != nil {
				logx.Errorf("Worker %d job failed: %v", workerID, err)
			}
		}
	}
}

// recoverStrandedJobs sweeps for failed jobs that were due for a retry
// but never made it back onto the queue.
func (w *ScreeningWorker) recoverStrandedJobs(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.service.RecoverFailedJobs(ctx, 50); err != nil {
				logx.Errorf("Stranded job sweep failed: %v", err)
			}
		}
	}
}

func (w *ScreeningWorker) moveDelayedJobs(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := w.queue.MoveDelayedToReady(ctx)
			if err != nil {
				logx.Errorf("Failed to move delayed jobs: %v", err)
			} else if count > 0 {
				logx.Infof("Moved %d delayed jobs to ready queue", count)
			}
		}
	}
}
