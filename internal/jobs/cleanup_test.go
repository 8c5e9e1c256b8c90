package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/medflow/auth-starter/internal/repository"
)

type stubTokenRepo struct {
	repository.RefreshTokenRepository
	calls atomic.Int32
}

func (s *stubTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	s.calls.Add(1)
	return 2, nil
}

func TestCleanupJob(t *testing.T) {
	repo := &stubTokenRepo{}
	job := NewCleanupJob(repo, time.Hour)

	job.Start()
	defer job.Stop()

	// the job runs once immediately on start
	assert.Eventually(t, func() bool {
		return repo.calls.Load() == 1
	}, time.Second, 10*time.Millisecond)
}
