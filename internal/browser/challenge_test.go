package browser

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thriftngo/storefront-cli/internal/event"
)

// scriptedURLs returns each URL in turn, repeating the last one.
func scriptedURLs(urls ...string) URLFunc {
	i := 0
	return func(context.Context) (string, error) {
		u := urls[i]
		if i < len(urls)-1 {
			i++
		}
		return u, nil
	}
}

func collectEvents(t *testing.T, m *ChallengeMonitor) []event.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var got []event.Event
	m.Run(ctx, func(e event.Event) { got = append(got, e) })
	require.NoError(t, ctx.Err(), "monitor should terminate on its own")
	return got
}

func TestChallengeMonitorClearFromStart(t *testing.T) {
	m := NewChallengeMonitor(scriptedURLs("https://www.ebay.com/usr/shop"), "captcha", time.Millisecond)
	got := collectEvents(t, m)

	require.Len(t, got, 1)
	assert.IsType(t, event.ChallengeResolved{}, got[0])
}

func TestChallengeMonitorDetectThenResolve(t *testing.T) {
	m := NewChallengeMonitor(scriptedURLs(
		"https://www.ebay.com/splashui/captcha?ru=x",
		"https://www.ebay.com/splashui/captcha?ru=x",
		"https://www.ebay.com/usr/shop",
	), "captcha", time.Millisecond)
	got := collectEvents(t, m)

	require.Len(t, got, 2)
	assert.IsType(t, event.ChallengeDetected{}, got[0])
	assert.IsType(t, event.ChallengeResolved{}, got[1])
}

func TestChallengeMonitorMarkerCaseInsensitive(t *testing.T) {
	m := NewChallengeMonitor(scriptedURLs(
		"https://www.ebay.com/CAPTCHA",
		"https://www.ebay.com/usr/shop",
	), "captcha", time.Millisecond)
	got := collectEvents(t, m)

	require.Len(t, got, 2)
	assert.IsType(t, event.ChallengeDetected{}, got[0])
}

func TestChallengeMonitorRetriesPollErrors(t *testing.T) {
	calls := 0
	urlFn := func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", eris.New("session busy")
		}
		return "https://www.ebay.com/usr/shop", nil
	}
	m := NewChallengeMonitor(urlFn, "captcha", time.Millisecond)
	got := collectEvents(t, m)

	require.Len(t, got, 1)
	assert.IsType(t, event.ChallengeResolved{}, got[0])
	assert.GreaterOrEqual(t, calls, 3)
}

func TestChallengeMonitorStopsOnContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewChallengeMonitor(scriptedURLs("https://www.ebay.com/captcha"), "captcha", time.Millisecond)
	var got []event.Event
	m.Run(ctx, func(e event.Event) { got = append(got, e) })

	// A canceled poll must not emit a resolution.
	for _, e := range got {
		assert.NotEqual(t, event.ChallengeResolved{}, e)
	}
}
