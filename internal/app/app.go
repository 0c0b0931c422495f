// Package app owns the main event loop. All application state lives in a
// single State value mutated only by the reducer, one event at a time;
// background work communicates exclusively by posting events back onto the
// bus. That single-writer discipline is what keeps the pipeline free of data
// races without any locking around State.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/thriftngo/storefront-cli/internal/event"
	"github.com/thriftngo/storefront-cli/internal/model"
)

// ViewMode selects which pane of the dashboard has focus.
type ViewMode int

const (
	ViewTable ViewMode = iota
	ViewDetail
)

// State is the complete application state. Only the reducer writes it.
type State struct {
	Stats    model.SellerStats
	Pipeline model.PipelineState
	Listings []model.Listing
	Selected int
	Locked   bool
	View     ViewMode
	Running  bool
}

// setProgress advances the progress bar. Values below the current progress
// are ignored so the bar never moves backward within a run.
func (s *State) setProgress(v float64, msg string) {
	if v > s.Pipeline.Progress {
		s.Pipeline.Progress = v
	}
	if msg != "" {
		s.Pipeline.Message = msg
	}
}

// Ops is the set of background operations the reducer can launch. Each call
// runs on its own goroutine and reports back by sending events; none of them
// touch State.
type Ops interface {
	Connect(ctx context.Context)
	Navigate(ctx context.Context, url string)
	ScrapeStats(ctx context.Context)
	ExpandIndex(ctx context.Context)
	Enrich(ctx context.Context, listings []model.Listing)
	Persist(ctx context.Context, listings []model.Listing)
	OpenListing(ctx context.Context, url string)
	Fail(ctx context.Context, cause string)
	Shutdown(ctx context.Context)
}

// App wires the bus, the reducer, and the background operations together.
type App struct {
	State State

	bus       *event.Bus
	ops       Ops
	targetURL string
	enrich    bool
	dashboard bool

	// spawn runs a background task. Tests replace it to run tasks inline.
	spawn  func(fn func())
	redraw func(*State)
}

// New builds an App. targetURL is the seller page the pipeline scrapes.
// When dashboard is false the app quits itself once the run finishes or
// fails instead of waiting for user input.
func New(bus *event.Bus, ops Ops, targetURL string, enrich, dashboard bool) *App {
	return &App{
		State: State{
			Running:  true,
			Pipeline: model.PipelineState{Message: "starting"},
		},
		bus:       bus,
		ops:       ops,
		targetURL: targetURL,
		enrich:    enrich,
		dashboard: dashboard,
		spawn:     func(fn func()) { go fn() },
	}
}

// OnTick registers the redraw callback invoked on every Tick event.
func (a *App) OnTick(fn func(*State)) { a.redraw = fn }

// Run kicks off the pipeline and consumes events until shutdown. It returns
// nil on orderly quit and the context error if the caller cancels.
func (a *App) Run(ctx context.Context) error {
	a.bus.Send(event.Connect{})
	for a.State.Running {
		e, err := a.bus.Next(ctx)
		if err != nil {
			if errors.Is(err, event.ErrClosed) {
				return nil
			}
			return err
		}
		a.Handle(ctx, e)
	}
	return nil
}

// Handle applies one event to the state and launches whatever follow-up work
// the transition calls for.
func (a *App) Handle(ctx context.Context, e event.Event) {
	switch ev := e.(type) {
	case event.Tick:
		if a.redraw != nil {
			a.redraw(&a.State)
		}

	case event.Input:
		a.handleKey(ctx, ev.Key)

	case event.Connect:
		a.State.Pipeline.Stage = model.StageConnecting
		a.State.setProgress(0.05, "launching browser")
		a.spawn(func() { a.ops.Connect(ctx) })

	case event.ClientReady:
		a.State.setProgress(0.1, "browser ready")
		a.bus.Send(event.Init{URL: a.targetURL})

	case event.ConnectFailed:
		a.State.Pipeline.Stage = model.StageFailed
		a.State.Pipeline.Message = "browser launch failed: " + ev.Err.Error()
		zap.L().Error("browser launch failed", zap.Error(ev.Err))
		a.ops.Fail(ctx, a.State.Pipeline.Message)
		if !a.dashboard {
			a.bus.Send(event.Quit{})
		}

	case event.Init:
		a.State.Pipeline.Stage = model.StageNavigating
		a.State.setProgress(0.15, "navigating to "+ev.URL)
		a.spawn(func() { a.ops.Navigate(ctx, ev.URL) })

	case event.NavigationComplete:
		a.State.Pipeline.Stage = model.StageAwaitingChallengeClearance
		a.State.setProgress(0.2, "page loaded, watching for challenge")

	case event.NavigationFailed:
		a.State.Pipeline.Message = "navigation failed: " + ev.Err.Error()
		zap.L().Warn("navigation failed", zap.Error(ev.Err))
		a.ops.Fail(ctx, a.State.Pipeline.Message)
		// Nothing further will arrive after an aborted navigation, so a
		// headless run must stop itself rather than block on the bus.
		if !a.dashboard {
			a.State.Pipeline.Stage = model.StageFailed
			a.bus.Send(event.Quit{})
		}

	case event.ChallengeDetected:
		a.State.Pipeline.CaptchaDetected = true
		a.State.Pipeline.WaitingForInput = true
		a.State.Pipeline.Message = "challenge detected, solve it in the browser window"

	case event.ChallengeResolved:
		a.State.Pipeline.CaptchaDetected = false
		a.State.Pipeline.WaitingForInput = false
		a.State.Pipeline.Stage = model.StageScrapingStats
		a.State.setProgress(0.3, "reading seller stats")
		a.spawn(func() { a.ops.ScrapeStats(ctx) })

	case event.SetProgress:
		a.State.setProgress(ev.Value, ev.Message)

	case event.ScrapeFeedback:
		a.State.Stats.FeedbackScore = ev.Score

	case event.ScrapeItemsSold:
		a.State.Stats.ItemsSold = ev.Count

	case event.ScrapeFollowerCount:
		a.State.Stats.FollowerCount = ev.Count

	case event.ClickSeeAll:
		a.State.Pipeline.Stage = model.StageExpandingListingIndex
		a.State.setProgress(0.5, "expanding listing index")
		a.spawn(func() { a.ops.ExpandIndex(ctx) })

	case event.ScrapeListings:
		a.State.Pipeline.Stage = model.StageExtractingListings
		a.State.Listings = ev.Listings
		a.State.Selected = 0
		a.State.setProgress(0.7, fmt.Sprintf("extracted %d listings", len(ev.Listings)))
		if a.enrich {
			a.bus.Send(event.EnrichListings{})
		} else {
			a.bus.Send(event.EnrichedListings{Listings: ev.Listings})
		}

	case event.EnrichListings:
		a.State.Pipeline.Stage = model.StageEnriching
		a.State.setProgress(0.75, "visiting item pages")
		listings := cloneListings(a.State.Listings)
		a.spawn(func() { a.ops.Enrich(ctx, listings) })

	case event.EnrichedListings:
		a.State.Listings = ev.Listings
		a.State.Selected = clampSelection(a.State.Selected, len(ev.Listings))
		a.State.Pipeline.Stage = model.StagePersisting
		a.State.setProgress(0.9, "saving listings")
		listings := cloneListings(ev.Listings)
		a.spawn(func() { a.ops.Persist(ctx, listings) })

	case event.ScrapingComplete:
		a.State.Pipeline.Stage = model.StageDone
		a.State.Pipeline.WaitingForInput = false
		a.State.setProgress(1.0, "scrape complete")
		if !a.dashboard {
			a.bus.Send(event.Quit{})
		}

	case event.Quit:
		a.State.Running = false
		a.ops.Shutdown(ctx)
		a.bus.Close()
	}
}

func (a *App) handleKey(ctx context.Context, key event.Key) {
	switch key {
	case event.KeyNavUp:
		if a.State.Selected > 0 {
			a.State.Selected--
		}
	case event.KeyNavDown:
		if a.State.Selected < len(a.State.Listings)-1 {
			a.State.Selected++
		}
	case event.KeyToggleLock:
		a.State.Locked = !a.State.Locked
	case event.KeyToggleView:
		if a.State.View == ViewTable {
			a.State.View = ViewDetail
		} else {
			a.State.View = ViewTable
		}
	case event.KeyOpenSelected:
		if a.State.Selected < len(a.State.Listings) {
			url := a.State.Listings[a.State.Selected].URL
			if url != "" {
				a.spawn(func() { a.ops.OpenListing(ctx, url) })
			}
		}
	case event.KeyQuit:
		a.bus.Send(event.Quit{})
	}
}

// clampSelection keeps the cursor inside the collection, pinning it to the
// last row when the collection shrinks and to zero when it empties.
func clampSelection(sel, length int) int {
	if length == 0 {
		return 0
	}
	if sel >= length {
		return length - 1
	}
	if sel < 0 {
		return 0
	}
	return sel
}

func cloneListings(in []model.Listing) []model.Listing {
	out := make([]model.Listing, len(in))
	copy(out, in)
	return out
}
