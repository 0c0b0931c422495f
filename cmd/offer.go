package main

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/thriftngo/storefront-cli/internal/browser"
	"github.com/thriftngo/storefront-cli/internal/event"
	"github.com/thriftngo/storefront-cli/internal/offer"
	"github.com/thriftngo/storefront-cli/internal/store"
)

var offerCmd = &cobra.Command{
	Use:   "offer <percentage>",
	Short: "Send discounted offers to everyone watching a listing",
	Long:  "Walks the pending-offers list on the transactions overview and sends each watcher an offer at the given percentage off the listed price.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		percent, err := strconv.Atoi(args[0])
		if err != nil {
			return eris.Wrapf(err, "offer: parse percentage %q", args[0])
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		runs, err := store.NewSQLite(cfg.Runs.DBPath)
		if err != nil {
			return eris.Wrap(err, "offer: open run store")
		}
		defer runs.Close() //nolint:errcheck
		if err := runs.Migrate(ctx); err != nil {
			return eris.Wrap(err, "offer: migrate run store")
		}
		run, err := runs.CreateRun(ctx, fmt.Sprintf("offer %d", percent))
		if err != nil {
			return eris.Wrap(err, "offer: create run")
		}

		sess, cleanup, err := startSession(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := signIn(ctx, sess); err != nil {
			_ = runs.FailRun(ctx, run.ID, err.Error())
			return err
		}

		sent, err := offer.NewSweeper(sess, cfg.Marketplace.OverviewURL).Sweep(ctx, percent)
		if err != nil {
			_ = runs.FailRun(ctx, run.ID, err.Error())
			return eris.Wrap(err, "offer: sweep")
		}
		if err := runs.CompleteRun(ctx, run.ID, sent); err != nil {
			zap.L().Warn("recording run completion failed", zap.Error(err))
		}

		fmt.Printf("sent %d offers at %d%%\n", sent, percent)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(offerCmd)
}

// startSession launches the supervised browser and returns a connected
// session plus its teardown.
func startSession(ctx context.Context) (*browser.Session, func(), error) {
	sup := browser.NewSupervisor(cfg.Browser)
	sess, err := sup.Start(ctx)
	if err != nil {
		sup.Stop()
		return nil, nil, eris.Wrap(err, "cmd: start browser")
	}
	cleanup := func() {
		_ = sess.Close(ctx)
		sup.Stop()
	}
	return sess, cleanup, nil
}

// signIn walks the sign-in flow and blocks until any challenge page clears.
func signIn(ctx context.Context, sess *browser.Session) error {
	if err := sess.Navigate(ctx, cfg.Marketplace.SignInURL); err != nil {
		return eris.Wrap(err, "cmd: navigate to sign-in")
	}
	awaitChallengeClear(ctx, sess)
	if err := sess.Login(ctx, cfg.Marketplace.Email, cfg.Marketplace.Password); err != nil {
		return eris.Wrap(err, "cmd: sign in")
	}
	awaitChallengeClear(ctx, sess)
	return nil
}

// awaitChallengeClear blocks until the challenge monitor reports a clear
// URL. The monitor is one-shot, so this returns as soon as the first
// ChallengeResolved fires (immediately when no challenge is shown).
func awaitChallengeClear(ctx context.Context, sess *browser.Session) {
	monitor := browser.NewChallengeMonitor(
		sess.CurrentURL,
		cfg.Marketplace.ChallengeMarker,
		time.Duration(cfg.Pipeline.ChallengePollSecs)*time.Second,
	)
	monitor.Run(ctx, func(e event.Event) {
		if _, ok := e.(event.ChallengeDetected); ok {
			zap.L().Info("challenge detected, waiting for it to clear")
		}
	})
}
