// Package event defines the application event union and the single-consumer
// bus that serializes all state mutation.
//
// Every orchestration signal is its own variant; background tasks never touch
// application state directly and instead post one of these onto the Bus. The
// reducer consumes events strictly one at a time, which is what gives the
// application single-writer semantics without locks.
package event

import "github.com/thriftngo/storefront-cli/internal/model"

// Event is the closed union of everything the main loop can receive.
type Event interface {
	isEvent()
}

// Tick is emitted on a fixed schedule and drives redraw only, never
// scraping logic.
type Tick struct{}

// Input is an already-mapped user input signal. The mapping from raw
// terminal input to these values happens upstream.
type Input struct {
	Key Key
}

// Key enumerates the discrete input signals the reducer understands.
type Key int

const (
	KeyNone Key = iota
	KeyNavUp
	KeyNavDown
	KeyToggleLock
	KeyToggleView
	KeyOpenSelected
	KeyQuit
)

// Connect requests the browser process launch and session connect.
type Connect struct{}

// ClientReady signals the automation session is connected.
type ClientReady struct{}

// ConnectFailed signals the driver process or session could not be
// brought up. Fatal to the run.
type ConnectFailed struct {
	Err error
}

// Init carries the target URL to navigate to once the client is ready.
type Init struct {
	URL string
}

// NavigationComplete signals the target page finished loading.
type NavigationComplete struct{}

// NavigationFailed aborts the current stage only.
type NavigationFailed struct {
	Err error
}

// ChallengeDetected signals the anti-bot interstitial appeared.
type ChallengeDetected struct{}

// ChallengeResolved signals the interstitial cleared (or was never shown).
type ChallengeResolved struct{}

// SetProgress updates the pipeline progress bar and status message.
type SetProgress struct {
	Value   float64
	Message string
}

// ScrapeFeedback carries a successfully read feedback score.
type ScrapeFeedback struct {
	Score string
}

// ScrapeItemsSold carries a successfully read items-sold count.
type ScrapeItemsSold struct {
	Count int
}

// ScrapeFollowerCount carries a successfully read follower count.
type ScrapeFollowerCount struct {
	Count int
}

// ClickSeeAll requests the listing index be expanded to its full view.
type ClickSeeAll struct{}

// ScrapeListings carries the freshly extracted listing collection.
type ScrapeListings struct {
	Listings []model.Listing
}

// EnrichListings requests the per-listing detail-page pass.
type EnrichListings struct{}

// EnrichedListings carries the collection after the detail-page pass.
type EnrichedListings struct {
	Listings []model.Listing
}

// ScrapingComplete signals the run finished and the dashboard view is live.
type ScrapingComplete struct{}

// Quit requests orderly shutdown.
type Quit struct{}

func (Tick) isEvent()                {}
func (Input) isEvent()               {}
func (Connect) isEvent()             {}
func (ClientReady) isEvent()         {}
func (ConnectFailed) isEvent()       {}
func (Init) isEvent()                {}
func (NavigationComplete) isEvent()  {}
func (NavigationFailed) isEvent()    {}
func (ChallengeDetected) isEvent()   {}
func (ChallengeResolved) isEvent()   {}
func (SetProgress) isEvent()         {}
func (ScrapeFeedback) isEvent()      {}
func (ScrapeItemsSold) isEvent()     {}
func (ScrapeFollowerCount) isEvent() {}
func (ClickSeeAll) isEvent()         {}
func (ScrapeListings) isEvent()      {}
func (EnrichListings) isEvent()      {}
func (EnrichedListings) isEvent()    {}
func (ScrapingComplete) isEvent()    {}
func (Quit) isEvent()                {}
