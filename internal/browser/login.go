package browser

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Sign-in form locators.
const (
	selEmailInput     = "#userid"
	selEmailContinue  = "#signin-continue-btn"
	selPasswordInput  = "#pass"
	selPasswordSubmit = "#sgnBt"
)

// Login walks the two-step sign-in form: email, continue, password,
// submit. The caller is responsible for navigating to the sign-in page
// first and for waiting out any challenge page around it.
func (s *Session) Login(ctx context.Context, email, password string) error {
	zap.L().Info("browser: submitting sign-in form")

	if err := s.SendKeys(ctx, selEmailInput, email); err != nil {
		return eris.Wrap(err, "browser: enter email")
	}
	if err := s.Click(ctx, selEmailContinue); err != nil {
		return eris.Wrap(err, "browser: continue after email")
	}

	// The password field renders after a short transition.
	if err := s.ScrollTo(ctx, selPasswordInput); err != nil && !errors.Is(err, ErrElementNotFound) {
		return eris.Wrap(err, "browser: scroll to password")
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Second):
	}

	if err := s.SendKeys(ctx, selPasswordInput, password); err != nil {
		return eris.Wrap(err, "browser: enter password")
	}
	if err := s.Click(ctx, selPasswordSubmit); err != nil {
		return eris.Wrap(err, "browser: submit sign-in")
	}

	return nil
}
