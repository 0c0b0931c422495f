package browser

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
)

// ErrElementNotFound marks a bounded wait that timed out. Callers treat it
// as "element absent", not as a failure.
var ErrElementNotFound = eris.New("browser: element not found")

// Session is the single stateful automation handle: one tab, one current
// page. Every operation is serialized behind the mutex because the
// challenge monitor, the stage orchestrator, and the enrichment loop all
// hold references to the same session while running on independent
// goroutines.
type Session struct {
	mu          sync.Mutex
	ctx         context.Context
	waitTimeout time.Duration
	navTimeout  time.Duration
}

// run executes chromedp actions against the tab under the session lock.
// Caller cancellation propagates into the in-flight operation.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	opCtx := s.ctx
	cancel := context.CancelFunc(func() {})
	if timeout > 0 {
		opCtx, cancel = context.WithTimeout(opCtx, timeout)
	}
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(opCtx, actions...)
}

// Navigate loads the given URL in the session's tab.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, s.navTimeout, chromedp.Navigate(url)); err != nil {
		return eris.Wrapf(err, "browser: navigate %s", url)
	}
	return nil
}

// CurrentURL reads the tab's current location.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := s.run(ctx, s.waitTimeout, chromedp.Location(&url)); err != nil {
		return "", eris.Wrap(err, "browser: current url")
	}
	return url, nil
}

// WaitText waits for the selector within the session's bounded wait and
// returns its text. Timing out yields ErrElementNotFound.
func (s *Session) WaitText(ctx context.Context, sel string) (string, error) {
	var text string
	err := s.run(ctx, s.waitTimeout,
		chromedp.WaitVisible(sel, chromedp.ByQuery),
		chromedp.Text(sel, &text, chromedp.ByQuery),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", ErrElementNotFound
		}
		return "", eris.Wrapf(err, "browser: wait text %s", sel)
	}
	return text, nil
}

// Click waits for the selector and clicks it. Timing out yields
// ErrElementNotFound.
func (s *Session) Click(ctx context.Context, sel string) error {
	err := s.run(ctx, s.waitTimeout,
		chromedp.WaitVisible(sel, chromedp.ByQuery),
		chromedp.Click(sel, chromedp.ByQuery),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrElementNotFound
		}
		return eris.Wrapf(err, "browser: click %s", sel)
	}
	return nil
}

// SendKeys types text into the element matched by the selector.
func (s *Session) SendKeys(ctx context.Context, sel, text string) error {
	err := s.run(ctx, s.waitTimeout,
		chromedp.WaitVisible(sel, chromedp.ByQuery),
		chromedp.SendKeys(sel, text, chromedp.ByQuery),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrElementNotFound
		}
		return eris.Wrapf(err, "browser: send keys %s", sel)
	}
	return nil
}

// Evaluate runs a script in the page and unmarshals its result into res.
// Pass nil res to discard the result.
func (s *Session) Evaluate(ctx context.Context, script string, res any) error {
	if err := s.run(ctx, s.waitTimeout, chromedp.Evaluate(script, res)); err != nil {
		return eris.Wrap(err, "browser: evaluate")
	}
	return nil
}

// FindNodes returns the nodes matching the selector without waiting.
// An empty result is not an error.
func (s *Session) FindNodes(ctx context.Context, sel string) ([]*cdp.Node, error) {
	var nodes []*cdp.Node
	err := s.run(ctx, s.waitTimeout,
		chromedp.Nodes(sel, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "browser: find %s", sel)
	}
	return nodes, nil
}

// PageHTML returns the full markup of the current page.
func (s *Session) PageHTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, s.navTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", eris.Wrap(err, "browser: page html")
	}
	return html, nil
}

// ScrollTo scrolls the element matched by the selector into view.
func (s *Session) ScrollTo(ctx context.Context, sel string) error {
	err := s.run(ctx, s.waitTimeout,
		chromedp.ScrollIntoView(sel, chromedp.ByQuery),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrElementNotFound
		}
		return eris.Wrapf(err, "browser: scroll to %s", sel)
	}
	return nil
}

// Close ends the automation session. Best effort; the supervisor still
// kills the process afterwards.
func (s *Session) Close(ctx context.Context) error {
	if err := s.run(ctx, s.waitTimeout, chromedp.Stop()); err != nil {
		return eris.Wrap(err, "browser: close")
	}
	return nil
}
