package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-engine/internal/dto"
	"github.com/noah-isme/timetable-engine/pkg/cache"
	appErrors "github.com/noah-isme/timetable-engine/pkg/errors"
	"github.com/noah-isme/timetable-engine/pkg/jobs"
)

const generateJobType = "timetable.generate"

type jobTracker struct {
	mu    sync.RWMutex
	items map[string]dto.JobResponse
}

func newJobTracker() *jobTracker {
	return &jobTracker{items: make(map[string]dto.JobResponse)}
}

func (t *jobTracker) put(job dto.JobResponse) {
	t.mu.Lock()
	t.items[job.JobID] = job
	t.mu.Unlock()
}

func (t *jobTracker) get(id string) (dto.JobResponse, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	job, ok := t.items[id]
	return job, ok
}

// StartJobs launches the generate workers.
func (s *TimetableService) StartJobs(ctx context.Context) {
	s.queue.Start(ctx)
}

// StopJobs waits for running generate jobs to exit.
func (s *TimetableService) StopJobs() {
	s.queue.Stop()
}

// SubmitJob validates the request and queues it for background generation.
func (s *TimetableService) SubmitJob(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.JobResponse, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "timetable generation is disabled")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}

	now := time.Now().UTC()
	job := dto.JobResponse{JobID: uuid.NewString(), Status: dto.JobQueued, CreatedAt: now, UpdatedAt: now}
	s.recordJob(ctx, job)

	s.metrics.JobStarted()
	if err := s.queue.Enqueue(jobs.Job{ID: job.JobID, Type: generateJobType, Payload: req}); err != nil {
		s.metrics.JobFinished()
		s.updateJob(job.JobID, func(j *dto.JobResponse) {
			j.Status = dto.JobFailed
			j.Error = err.Error()
		})
		if errors.Is(err, jobs.ErrQueueFull) {
			return nil, appErrors.Wrap(err, appErrors.ErrQueueFull.Code, appErrors.ErrQueueFull.Status, appErrors.ErrQueueFull.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue generation job")
	}
	s.logger.Info("timetable job queued", zap.String("job_id", job.JobID))
	return &job, nil
}

// GetJob reports the state of a queued generation.
func (s *TimetableService) GetJob(ctx context.Context, id string) (*dto.JobResponse, error) {
	if job, ok := s.jobs.get(id); ok {
		return &job, nil
	}
	var cached dto.JobResponse
	if hit, _ := s.cacheGet(ctx, jobCacheKey(id), &cached); hit {
		return &cached, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
}

func (s *TimetableService) handleJob(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(dto.GenerateTimetableRequest)
	if !ok {
		s.finishJob(job.ID, nil, fmt.Errorf("unexpected payload %T", job.Payload))
		return nil
	}
	s.updateJob(job.ID, func(j *dto.JobResponse) { j.Status = dto.JobRunning })

	result, err := s.Generate(ctx, req)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Status < http.StatusInternalServerError {
			s.finishJob(job.ID, nil, err)
			return nil
		}
		return err
	}
	s.finishJob(job.ID, result, nil)
	return nil
}

func (s *TimetableService) jobGaveUp(job jobs.Job, err error) {
	s.finishJob(job.ID, nil, err)
}

func (s *TimetableService) finishJob(id string, result *dto.GenerateTimetableResponse, err error) {
	s.updateJob(id, func(j *dto.JobResponse) {
		if j.Status == dto.JobSucceeded || j.Status == dto.JobFailed {
			return
		}
		s.metrics.JobFinished()
		if err != nil {
			j.Status = dto.JobFailed
			j.Error = err.Error()
			return
		}
		j.Status = dto.JobSucceeded
		j.Result = result
	})
}

func (s *TimetableService) updateJob(id string, mutate func(*dto.JobResponse)) {
	job, ok := s.jobs.get(id)
	if !ok {
		return
	}
	mutate(&job)
	job.UpdatedAt = time.Now().UTC()
	s.recordJob(context.Background(), job)
}

func (s *TimetableService) recordJob(ctx context.Context, job dto.JobResponse) {
	s.jobs.put(job)
	_ = s.cacheSet(ctx, jobCacheKey(job.JobID), job, s.cfg.ProposalTTL)
}

func jobCacheKey(id string) string { return cache.Key("job", id) }
