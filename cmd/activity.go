package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"vaultswap/pkg/activity"
	"vaultswap/pkg/events"
)

var (
	activityPages  int
	activityLatest int
)

var activityCmd = &cobra.Command{
	Use:     "activity",
	Aliases: []string{"events", "history"},
	Short:   "Browse pool activity, newest first",
	Long: `List swaps, liquidity changes, deposits, withdrawals and fee claims across the
pool, newest first. Activity before events_cutoff is hidden.

Examples:
  vaultswap activity
  vaultswap activity --pages 3
  vaultswap activity --latest 10`,
	Args: cobra.NoArgs,
	Run:  runActivity,
}

func init() {
	rootCmd.AddCommand(activityCmd)

	activityCmd.Flags().IntVar(&activityPages, "pages", 1, "Number of pages to load")
	activityCmd.Flags().IntVar(&activityLatest, "latest", 0, "Show only the N most recent records")
}

func runActivity(cmd *cobra.Command, args []string) {
	a := setup(cmd)
	ctx, cancel := signalContext()
	defer cancel()

	if activityLatest > 0 {
		var evs []events.Event
		err := a.withSpinner("Fetching latest activity...", func() error {
			var err error
			evs, err = a.session.LatestEvents(ctx, activityLatest)
			return err
		})
		if err != nil {
			a.fail(err)
		}
		if a.json {
			printJSON(evs)
			return
		}
		displayEvents(evs, false)
		return
	}

	var feed activity.Feed
	err := a.withSpinner("Fetching activity...", func() error {
		var err error
		if feed, err = a.session.LoadFirstPage(ctx); err != nil {
			return err
		}
		for page := 1; page < activityPages && feed.HasMore; page++ {
			if feed, err = a.session.LoadMorePage(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		a.fail(err)
	}

	if a.json {
		printJSON(map[string]interface{}{
			"events":   feed.Events,
			"cursor":   feed.Cursor,
			"has_more": feed.HasMore,
		})
		return
	}
	displayEvents(feed.Events, feed.HasMore)
}

func displayEvents(evs []events.Event, hasMore bool) {
	if len(evs) == 0 {
		fmt.Println("\nNo activity found.")
		return
	}

	banner("POOL ACTIVITY", 90, color.Green)
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  TIME\tKIND\tWHO\tDETAILS")
	for _, ev := range evs {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n",
			ev.Time().Local().Format(time.DateTime),
			kindColor(ev.Kind),
			shorten(ev.Actor, 20),
			eventDetails(ev))
	}
	w.Flush()

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nShowing %d events", len(evs))
	if hasMore {
		fmt.Print(" (more available, use --pages)")
	}
	fmt.Println()
	fmt.Println()
}

func eventDetails(ev events.Event) string {
	switch ev.Kind {
	case events.KindSwap:
		return fmt.Sprintf("%s in, %s out", ev.AmountIn.StringFixed(6), ev.AmountOut.StringFixed(6))
	case events.KindAddLiquidity, events.KindRemoveLiquidity:
		return fmt.Sprintf("%s ckUSDC + %s ckUSDT, %s shares", ev.USDC.StringFixed(6), ev.USDT.StringFixed(6), ev.Shares.StringFixed(6))
	case events.KindDeposit, events.KindWithdraw:
		return fmt.Sprintf("%s %s", ev.Amount.StringFixed(6), ev.Token)
	case events.KindClaimFee:
		return fmt.Sprintf("%s ckUSDC + %s ckUSDT", ev.USDC.StringFixed(6), ev.USDT.StringFixed(6))
	}
	return ""
}

func kindColor(k events.Kind) string {
	switch k {
	case events.KindSwap:
		return color.CyanString(string(k))
	case events.KindAddLiquidity, events.KindDeposit:
		return color.GreenString(string(k))
	case events.KindRemoveLiquidity, events.KindWithdraw:
		return color.YellowString(string(k))
	case events.KindClaimFee:
		return color.MagentaString(string(k))
	}
	return string(k)
}

func shorten(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}
