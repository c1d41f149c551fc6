package credential

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/halcyon-ai/relaygw/internal/logging"
)

// Refresher runs a background cron job that proactively refreshes a
// KeyringProvider's token ahead of expiry, so the quota-retry path in C4
// is a fallback rather than the only refresh trigger.
type Refresher struct {
	cron *cron.Cron
}

// StartRefresher schedules Refresh to run every interval, logging failures
// without propagating them — a missed proactive refresh just falls back to
// the reactive Token() check on the next request.
func StartRefresher(provider *KeyringProvider, interval time.Duration) *Refresher {
	c := cron.New()
	spec := "@every " + interval.String()
	_, _ = c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := provider.Refresh(ctx); err != nil {
			logging.Warnf("credential: proactive refresh failed: %v", err)
		}
	})
	c.Start()
	return &Refresher{cron: c}
}

// Stop halts the background job, waiting for any in-flight run to finish.
func (r *Refresher) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}
