//go:build !integration

package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/thriftngo/storefront-cli/internal/event"
	"github.com/thriftngo/storefront-cli/internal/model"
	"github.com/thriftngo/storefront-cli/internal/store"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 15, 0, 0, time.UTC)
	finished := now.Add(4 * time.Minute)
	runs := []store.Run{
		{
			ID:           "abc12345-6789-0000-0000-000000000000",
			Command:      "inventory",
			Status:       model.RunStatusComplete,
			ListingCount: 37,
			StartedAt:    now,
			FinishedAt:   &finished,
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			Command:   "offer 90",
			Status:    model.RunStatusRunning,
			StartedAt: now.Add(-time.Hour),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "COMMAND")
	assert.Contains(t, output, "inventory")
	assert.Contains(t, output, "complete")
	assert.Contains(t, output, "37")
	assert.Contains(t, output, "4m0s")
	assert.Contains(t, output, "offer 90")
	assert.Contains(t, output, "running")
	assert.Contains(t, output, "2026-03-10 09:15")
	assert.Contains(t, output, "abc12345")
	assert.NotContains(t, output, "abc12345-6789")
}

func TestFormatRunsListFailedRunShowsError(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 15, 0, 0, time.UTC)
	finished := now.Add(time.Minute)
	runs := []store.Run{
		{
			ID:         "fail1234-0000-0000-0000-000000000000",
			Command:    "inventory",
			Status:     model.RunStatusFailed,
			Error:      "csv merge: parse header",
			StartedAt:  now,
			FinishedAt: &finished,
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "failed")
	assert.Contains(t, output, "csv merge: parse header")
}

func TestMapKey(t *testing.T) {
	assert.Equal(t, event.KeyNavUp, mapKey("k"))
	assert.Equal(t, event.KeyNavUp, mapKey("up"))
	assert.Equal(t, event.KeyNavDown, mapKey("j"))
	assert.Equal(t, event.KeyToggleLock, mapKey("l"))
	assert.Equal(t, event.KeyToggleView, mapKey("v"))
	assert.Equal(t, event.KeyOpenSelected, mapKey("i"))
	assert.Equal(t, event.KeyQuit, mapKey("q"))
	assert.Equal(t, event.KeyNone, mapKey("zz"))
}
