package notification

import (
	"context"
	"fmt"

	"github.com/BlixtWallet/noah-sub000/internal/domain"
)

// JobStatusReader extends JobStatusStore with the lookups the report
// endpoint needs.
type JobStatusReader interface {
	Get(ctx context.Context, k1 string) (*domain.JobStatus, error)
	UpdateStatus(ctx context.Context, k1 string, status domain.ReportStatus, errorMessage *string) error
}

// Service handles job-status reports coming back from devices.
type Service interface {
	// ReportJobStatus records the outcome of a maintenance or backup job.
	// The dispatch is identified by the k1 the device authenticated with,
	// the same per-device challenge that was embedded in the push.
	ReportJobStatus(ctx context.Context, pubkey, k1 string, req domain.ReportJobStatusRequest) error
}

type service struct {
	jobs JobStatusReader
}

func NewService(jobs JobStatusReader) Service {
	return &service{jobs: jobs}
}

func (s *service) ReportJobStatus(ctx context.Context, pubkey, k1 string, req domain.ReportJobStatusRequest) error {
	js, err := s.jobs.Get(ctx, k1)
	if err != nil {
		return err
	}
	if js.Pubkey != pubkey {
		return fmt.Errorf("job report for another user: %w", domain.ErrUnauthorized)
	}
	if js.Type != req.ReportType {
		return fmt.Errorf("report type mismatch: %w", domain.ErrBadRequest)
	}
	return s.jobs.UpdateStatus(ctx, k1, req.Status, req.ErrorMessage)
}
