package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/medflow/auth-starter/internal/repository"
)

// CleanupJob periodically purges refresh tokens that are expired and no
// longer referenced by a rotation chain. Revocation already makes them
// unusable; this only keeps the table from growing without bound.
type CleanupJob struct {
	tokenRepo repository.RefreshTokenRepository
	interval  time.Duration
	done      chan struct{}
}

func NewCleanupJob(tokenRepo repository.RefreshTokenRepository, interval time.Duration) *CleanupJob {
	return &CleanupJob{
		tokenRepo: tokenRepo,
		interval:  interval,
		done:      make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := j.tokenRepo.DeleteExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to clean up refresh tokens")
	} else if count > 0 {
		log.Info().Int64("count", count).Msg("cleaned up expired refresh tokens")
	}
}
