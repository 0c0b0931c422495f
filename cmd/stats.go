package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/thriftngo/storefront-cli/internal/app"
	"github.com/thriftngo/storefront-cli/internal/browser"
)

// Available-funds figure on the payments tile. The markup nests deeply and
// has no stable class on the leaf span, hence the positional chain.
const fundsSelector = ".payment-tile--positive > div:nth-child(1) > div:nth-child(1) > span:nth-child(2) > a:nth-child(1) > span:nth-child(1) > span:nth-child(1) > span:nth-child(1) > span:nth-child(1)"

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print seller account figures",
	Long:  "Signs in, reads the available-funds figure from the payments tile and the storefront seller card stats, and prints them.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		sess, cleanup, err := startSession(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := signIn(ctx, sess); err != nil {
			return err
		}

		if err := sess.Navigate(ctx, cfg.Marketplace.OverviewURL); err != nil {
			return eris.Wrap(err, "stats: navigate to overview")
		}
		awaitChallengeClear(ctx, sess)

		funds, err := sess.WaitText(ctx, fundsSelector)
		if err != nil {
			if !errors.Is(err, browser.ErrElementNotFound) {
				return eris.Wrap(err, "stats: read available funds")
			}
			zap.L().Info("available-funds tile not found")
		}

		if err := sess.Navigate(ctx, cfg.Marketplace.SellerPageURL); err != nil {
			return eris.Wrap(err, "stats: navigate to storefront")
		}
		awaitChallengeClear(ctx, sess)
		card := app.SellerCardStats(ctx, sess)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		p := message.NewPrinter(language.English)
		fmt.Fprintf(w, "Available funds\t%s\n", orDash(funds))
		fmt.Fprintf(w, "Feedback score\t%s\n", orDash(card.FeedbackScore))
		p.Fprintf(w, "Items sold\t%d\n", card.ItemsSold)
		p.Fprintf(w, "Followers\t%d\n", card.FollowerCount)
		return w.Flush()
	},
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
