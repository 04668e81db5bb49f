package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// RunScheduled runs the stale-session cleanup on a fixed interval until the
// context is cancelled. The first run happens immediately; one failed run is
// logged and does not stop the schedule.
func (s *Service) RunScheduled(ctx context.Context, minutes int, every time.Duration) error {
	if every <= 0 {
		return fmt.Errorf("schedule interval must be positive")
	}

	if err := s.Cleanup(ctx, minutes); err != nil {
		s.logger.Warn().Err(err).Msg("Scheduled cleanup run failed")
	}

	c := cron.New()
	_, err := c.AddFunc(fmt.Sprintf("@every %s", every), func() {
		if err := s.Cleanup(ctx, minutes); err != nil {
			s.logger.Warn().Err(err).Msg("Scheduled cleanup run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}

	c.Start()
	s.logger.Info().Dur("every", every).Int("minutes", minutes).Msg("Cleanup schedule started")

	<-ctx.Done()

	stopCtx := c.Stop()
	<-stopCtx.Done()
	s.logger.Info().Msg("Cleanup schedule stopped")
	return nil
}
