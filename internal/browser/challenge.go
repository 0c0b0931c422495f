package browser

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/thriftngo/storefront-cli/internal/event"
)

// URLFunc reads the current page URL. Production code passes
// Session.CurrentURL; tests inject scripted sequences.
type URLFunc func(ctx context.Context) (string, error)

// ChallengeMonitor is a one-shot watcher started per navigation. It polls
// the current URL and emits edge-triggered challenge signals, then
// terminates. It is never a long-lived daemon, so successive navigations
// cannot accumulate overlapping watchers.
type ChallengeMonitor struct {
	currentURL URLFunc
	marker     string
	interval   time.Duration
}

// NewChallengeMonitor creates a monitor that treats a URL containing
// marker (case-insensitive) as the anti-bot interstitial.
func NewChallengeMonitor(currentURL URLFunc, marker string, interval time.Duration) *ChallengeMonitor {
	if interval <= 0 {
		interval = time.Second
	}
	return &ChallengeMonitor{currentURL: currentURL, marker: marker, interval: interval}
}

// Run polls until the challenge resolves or ctx is done.
//
// Edge-triggered contract: a URL already clear at first poll emits exactly
// one ChallengeResolved and no ChallengeDetected. A URL that is marked
// emits ChallengeDetected exactly once, and ChallengeResolved exactly once
// when it later clears. Poll errors are logged and the poll retried.
func (m *ChallengeMonitor) Run(ctx context.Context, send func(event.Event)) {
	detected := false

	for {
		url, err := m.currentURL(ctx)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			zap.L().Warn("challenge: url poll failed", zap.Error(err))
		case m.onChallenge(url):
			if !detected {
				detected = true
				zap.L().Info("challenge: interstitial detected", zap.String("url", url))
				send(event.ChallengeDetected{})
			}
		default:
			if detected {
				zap.L().Info("challenge: interstitial cleared", zap.String("url", url))
			}
			send(event.ChallengeResolved{})
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(m.interval):
		}
	}
}

func (m *ChallengeMonitor) onChallenge(url string) bool {
	return strings.Contains(strings.ToLower(url), strings.ToLower(m.marker))
}
