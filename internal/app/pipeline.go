package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"go.uber.org/zap"

	"github.com/thriftngo/storefront-cli/internal/browser"
	"github.com/thriftngo/storefront-cli/internal/config"
	"github.com/thriftngo/storefront-cli/internal/enrich"
	"github.com/thriftngo/storefront-cli/internal/event"
	"github.com/thriftngo/storefront-cli/internal/extract"
	"github.com/thriftngo/storefront-cli/internal/model"
	"github.com/thriftngo/storefront-cli/internal/storage"
	"github.com/thriftngo/storefront-cli/internal/store"
)

// Seller-card widgets on the storefront page. The card has shipped with a
// couple of different stat layouts, so each stat carries its own ordered
// fallback list.
var (
	feedbackScoreSelectors = []string{
		".str-seller-card__store-stats-content > div:nth-child(1)",
		".str-seller-card__feedback-link",
	}
	itemsSoldSelectors = []string{
		".str-seller-card__store-stats-content > div:nth-child(2)",
		".str-seller-card__stats--sold",
	}
	followerCountSelectors = []string{
		".str-seller-card__store-stats-content > div:nth-child(3)",
		".str-seller-card__stats--followers",
	}
	seeAllSelectors = []string{
		".str-marginals__footer--viewallbtn",
		"a.str-marginals__footer--viewallbtn",
	}
)

// expandSettle gives the expanded listing index time to render before the
// page HTML is captured.
const expandSettle = 2 * time.Second

// completionGrace keeps the final progress state on screen briefly before
// the dashboard takes over.
const completionGrace = time.Second

// browserSession is the slice of browser.Session the pipeline drives.
type browserSession interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	WaitText(ctx context.Context, sel string) (string, error)
	Click(ctx context.Context, sel string) error
	FindNodes(ctx context.Context, sel string) ([]*cdp.Node, error)
	PageHTML(ctx context.Context) (string, error)
	Close(ctx context.Context) error
}

// PipelineOps is the production Ops implementation. It drives a supervised
// browser session and reports every outcome back through the bus.
type PipelineOps struct {
	bus *event.Bus
	cfg *config.Config

	supervisor *browser.Supervisor
	session    browserSession
	settle     time.Duration

	csv      *storage.CSVStore
	mirror   *storage.PostgresMirror
	runs     store.Store
	runID    string
	xlsxPath string
}

// NewPipelineOps builds the production pipeline. mirror and runs may be nil
// when the corresponding backends are not configured; xlsxPath may be empty.
func NewPipelineOps(bus *event.Bus, cfg *config.Config, csv *storage.CSVStore, mirror *storage.PostgresMirror, runs store.Store, runID, xlsxPath string) *PipelineOps {
	return &PipelineOps{
		bus:      bus,
		cfg:      cfg,
		settle:   expandSettle,
		csv:      csv,
		mirror:   mirror,
		runs:     runs,
		runID:    runID,
		xlsxPath: xlsxPath,
	}
}

func (p *PipelineOps) Connect(ctx context.Context) {
	p.supervisor = browser.NewSupervisor(p.cfg.Browser)
	sess, err := p.supervisor.Start(ctx)
	if err != nil {
		p.bus.Send(event.ConnectFailed{Err: err})
		return
	}
	p.session = sess
	p.bus.Send(event.ClientReady{})
}

// Navigate loads the target page, then keeps the same goroutine alive as the
// challenge watcher. The watcher is one-shot: it emits ChallengeResolved
// exactly once and returns.
func (p *PipelineOps) Navigate(ctx context.Context, url string) {
	if err := p.session.Navigate(ctx, url); err != nil {
		p.bus.Send(event.NavigationFailed{Err: err})
		return
	}
	p.bus.Send(event.NavigationComplete{})

	monitor := browser.NewChallengeMonitor(
		p.session.CurrentURL,
		p.cfg.Marketplace.ChallengeMarker,
		time.Duration(p.cfg.Pipeline.ChallengePollSecs)*time.Second,
	)
	monitor.Run(ctx, p.bus.Send)
}

// SellerCardStats reads the storefront seller card directly. A stat that
// cannot be found is left at its zero value.
func SellerCardStats(ctx context.Context, sess *browser.Session) model.SellerStats {
	var stats model.SellerStats
	if text, ok := firstSelectorText(ctx, sess, feedbackScoreSelectors); ok {
		stats.FeedbackScore = text
	}
	if text, ok := firstSelectorText(ctx, sess, itemsSoldSelectors); ok {
		stats.ItemsSold = extract.Count(text)
	}
	if text, ok := firstSelectorText(ctx, sess, followerCountSelectors); ok {
		stats.FollowerCount = extract.Count(text)
	}
	return stats
}

// ScrapeStats reads the seller-card stats. Each stat is independently
// fallible; a stat that cannot be read is logged and skipped without
// stalling the pipeline.
func (p *PipelineOps) ScrapeStats(ctx context.Context) {
	if text, ok := p.firstText(ctx, itemsSoldSelectors); ok {
		p.bus.Send(event.ScrapeItemsSold{Count: extract.Count(text)})
	} else {
		zap.L().Info("items-sold count not found on seller card")
	}
	p.bus.Send(event.SetProgress{Value: 0.35, Message: "read items sold"})

	if text, ok := p.firstText(ctx, feedbackScoreSelectors); ok {
		p.bus.Send(event.ScrapeFeedback{Score: text})
	} else {
		zap.L().Info("feedback score not found on seller card")
	}
	p.bus.Send(event.SetProgress{Value: 0.4, Message: "read feedback score"})

	if text, ok := p.firstText(ctx, followerCountSelectors); ok {
		p.bus.Send(event.ScrapeFollowerCount{Count: extract.Count(text)})
	} else {
		zap.L().Info("follower count not found on seller card")
	}
	p.bus.Send(event.SetProgress{Value: 0.45, Message: "read follower count"})

	p.bus.Send(event.ClickSeeAll{})
}

// ExpandIndex clicks the "see all" control when present, captures the page,
// and extracts the listing collection. A missing control is not an error;
// the visible subset is scraped instead.
func (p *PipelineOps) ExpandIndex(ctx context.Context) {
	clicked := false
	for _, sel := range seeAllSelectors {
		// Probe before clicking so an absent selector costs a lookup,
		// not a full bounded wait.
		nodes, err := p.session.FindNodes(ctx, sel)
		if err != nil {
			zap.L().Warn("see-all probe failed", zap.String("selector", sel), zap.Error(err))
			continue
		}
		if len(nodes) == 0 {
			continue
		}
		if err := p.session.Click(ctx, sel); err != nil {
			zap.L().Warn("see-all click failed", zap.String("selector", sel), zap.Error(err))
			continue
		}
		clicked = true
		break
	}
	if clicked {
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.settle):
		}
	} else {
		zap.L().Info("see-all control not found, scraping current view")
	}

	html, err := p.session.PageHTML(ctx)
	if err != nil {
		p.bus.Send(event.NavigationFailed{Err: err})
		return
	}
	listings, err := extract.Listings(html)
	if err != nil {
		zap.L().Error("listing extraction failed", zap.Error(err))
		p.bus.Send(event.NavigationFailed{Err: err})
		return
	}
	p.bus.Send(event.ScrapeListings{Listings: listings})
}

func (p *PipelineOps) Enrich(ctx context.Context, listings []model.Listing) {
	delay := time.Duration(p.cfg.Pipeline.EnrichDelayMillis) * time.Millisecond
	enricher := enrich.New(p.session, delay, p.cfg.Marketplace.ItemURLPrefix)
	p.bus.Send(event.EnrichedListings{Listings: enricher.Enrich(ctx, listings)})
}

// Persist merges the collection into the CSV store and fans out to the
// optional backends. A CSV merge failure is fatal to persistence: the
// existing file is never overwritten with partial data.
func (p *PipelineOps) Persist(ctx context.Context, listings []model.Listing) {
	if err := p.csv.Merge(listings); err != nil {
		zap.L().Error("csv merge failed", zap.String("path", p.csv.Path()), zap.Error(err))
		if p.runs != nil && p.runID != "" {
			if ferr := p.runs.FailRun(ctx, p.runID, err.Error()); ferr != nil {
				zap.L().Warn("recording run failure failed", zap.Error(ferr))
			}
		}
		p.bus.Send(event.SetProgress{Value: 1, Message: "persistence failed: " + err.Error()})
		p.bus.Send(event.ScrapingComplete{})
		return
	}

	if p.xlsxPath != "" {
		if err := storage.WriteXLSX(p.xlsxPath, listings); err != nil {
			zap.L().Warn("xlsx export failed", zap.String("path", p.xlsxPath), zap.Error(err))
		}
	}
	if p.mirror != nil {
		if err := p.mirror.Upsert(ctx, listings); err != nil {
			zap.L().Warn("postgres mirror upsert failed", zap.Error(err))
		}
	}
	if p.runs != nil && p.runID != "" {
		if err := p.runs.CompleteRun(ctx, p.runID, len(listings)); err != nil {
			zap.L().Warn("recording run completion failed", zap.Error(err))
		}
	}

	p.bus.Send(event.SetProgress{Value: 1, Message: fmt.Sprintf("saved %d listings", len(listings))})
	select {
	case <-ctx.Done():
	case <-time.After(completionGrace):
	}
	p.bus.Send(event.ScrapingComplete{})
}

func (p *PipelineOps) OpenListing(ctx context.Context, url string) {
	if err := p.session.Navigate(ctx, url); err != nil {
		zap.L().Warn("open listing failed", zap.String("url", url), zap.Error(err))
	}
}

// Fail records the run as failed. Called by the reducer when a fatal
// transition fires; safe without a configured run store.
func (p *PipelineOps) Fail(ctx context.Context, cause string) {
	if p.runs == nil || p.runID == "" {
		return
	}
	if err := p.runs.FailRun(ctx, p.runID, cause); err != nil {
		zap.L().Warn("recording run failure failed", zap.Error(err))
	}
}

func (p *PipelineOps) Shutdown(ctx context.Context) {
	if p.session != nil {
		if err := p.session.Close(ctx); err != nil {
			zap.L().Debug("session close", zap.Error(err))
		}
	}
	if p.supervisor != nil {
		p.supervisor.Stop()
	}
	if p.mirror != nil {
		p.mirror.Close()
	}
}

func (p *PipelineOps) firstText(ctx context.Context, selectors []string) (string, bool) {
	return firstSelectorText(ctx, p.session, selectors)
}

// textWaiter is the single-method slice of the session the stat readers use.
type textWaiter interface {
	WaitText(ctx context.Context, sel string) (string, error)
}

func firstSelectorText(ctx context.Context, sess textWaiter, selectors []string) (string, bool) {
	for _, sel := range selectors {
		text, err := sess.WaitText(ctx, sel)
		if err != nil {
			if errors.Is(err, browser.ErrElementNotFound) {
				continue
			}
			zap.L().Warn("stat read failed", zap.String("selector", sel), zap.Error(err))
			return "", false
		}
		if text != "" {
			return text, true
		}
	}
	return "", false
}
