// Package browser owns the supervised browser process and the single
// stateful automation session against it. All chromedp use is isolated
// here so the orchestration and extraction layers never depend on the
// automation backend.
package browser

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/thriftngo/storefront-cli/internal/config"
)

// Supervisor launches the browser process via a chromedp exec allocator
// and guarantees its termination on Stop.
type Supervisor struct {
	cfg         config.BrowserConfig
	allocCancel context.CancelFunc
	tabCancel   context.CancelFunc
}

// NewSupervisor creates an unstarted supervisor.
func NewSupervisor(cfg config.BrowserConfig) *Supervisor {
	return &Supervisor{cfg: cfg}
}

// Start launches the browser process, opens one tab, and returns the
// connected session. A failure here is fatal to the run.
func (s *Supervisor) Start(ctx context.Context) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.Flag("disable-gpu", false),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(s.cfg.UserAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// Run with no actions forces the process launch and CDP handshake.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, eris.Wrap(err, "browser: launch")
	}

	s.allocCancel = allocCancel
	s.tabCancel = tabCancel

	zap.L().Info("browser: process launched",
		zap.Bool("headless", s.cfg.Headless),
	)

	return &Session{
		ctx:         tabCtx,
		waitTimeout: time.Duration(s.cfg.WaitTimeoutSecs) * time.Second,
		navTimeout:  time.Duration(s.cfg.NavTimeoutSecs) * time.Second,
	}, nil
}

// Stop tears down the tab and the browser process. Safe to call more than
// once and before Start.
func (s *Supervisor) Stop() {
	if s.tabCancel != nil {
		s.tabCancel()
		s.tabCancel = nil
	}
	if s.allocCancel != nil {
		s.allocCancel()
		s.allocCancel = nil
	}
	zap.L().Info("browser: process terminated")
}
