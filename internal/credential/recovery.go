package credential

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// StartRecovery periodically re-marks rate-limited credentials as valid
// once they have sat out a cooldown window. Revoked credentials are never
// touched. Blocks until ctx is cancelled; run it in its own goroutine.
func StartRecovery(ctx context.Context, store AdminStore, cooldown, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	// Track when each credential was first seen rate-limited; the store
	// does not record the transition time.
	limitedSince := make(map[string]time.Time)
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			creds, err := store.ListAll(ctx)
			if err != nil {
				log.WithError(err).Warn("credential recovery: list failed")
				continue
			}
			seen := make(map[string]bool, len(creds))
			for _, c := range creds {
				if c.Status != StatusRateLimited {
					continue
				}
				seen[c.ID] = true
				since, ok := limitedSince[c.ID]
				if !ok {
					limitedSince[c.ID] = now
					continue
				}
				if now.Sub(since) < cooldown {
					continue
				}
				if err := store.UpdateStatus(ctx, c.ID, StatusValid); err != nil {
					log.WithError(err).WithField("cred_id", c.ID).Warn("credential recovery: update failed")
					continue
				}
				delete(limitedSince, c.ID)
				log.WithField("cred_id", c.ID).Info("credential recovered from rate limit")
			}
			for id := range limitedSince {
				if !seen[id] {
					delete(limitedSince, id)
				}
			}
		}
	}
}
