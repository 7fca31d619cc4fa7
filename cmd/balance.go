package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"vaultswap/pkg/refresh"
	"vaultswap/pkg/types"
)

var (
	watchBalance  bool
	watchInterval int
	noRecompute   bool
)

var balanceCmd = &cobra.Command{
	Use:     "balance",
	Aliases: []string{"bal"},
	Short:   "Show your available pool balance",
	Long: `Ask the service to recompute your available balance and wait until the new
value shows up (up to poll_tries reads, poll_interval apart).

Examples:
  vaultswap balance
  vaultswap balance --no-refresh
  vaultswap balance --watch --interval 10`,
	Args: cobra.NoArgs,
	Run:  runBalance,
}

func init() {
	rootCmd.AddCommand(balanceCmd)

	balanceCmd.Flags().BoolVarP(&watchBalance, "watch", "w", false, "Refresh the balance continuously")
	balanceCmd.Flags().IntVar(&watchInterval, "interval", 15, "Seconds between refreshes (when watching)")
	balanceCmd.Flags().BoolVar(&noRecompute, "no-refresh", false, "Read the current value without asking for a recompute")
}

func runBalance(cmd *cobra.Command, args []string) {
	a := setup(cmd)
	ctx, cancel := signalContext()
	defer cancel()

	if watchBalance {
		watchBalances(ctx, a)
		return
	}

	obs, err := readBalance(ctx, a)
	if err != nil {
		a.fail(err)
	}

	if a.json {
		printJSON(map[string]interface{}{
			"ckUSDC":   obs.Balance.USDC.String(),
			"ckUSDT":   obs.Balance.USDT.String(),
			"attempts": obs.Attempts,
			"changed":  obs.Changed,
		})
		return
	}
	displayBalance(obs)
}

func readBalance(ctx context.Context, a *app) (refresh.Observation, error) {
	var obs refresh.Observation
	err := a.withSpinner("Refreshing balance...", func() error {
		if noRecompute {
			b, err := a.session.ReadBalance(ctx)
			obs = refresh.Observation{Balance: b, Attempts: 1}
			return err
		}
		var err error
		obs, err = a.session.RefreshBalances(ctx)
		return err
	})
	return obs, err
}

var errInvalidInterval = errors.New("--interval must be at least 1 second")

// watchPeriod converts the --interval flag into a ticker period.
func watchPeriod(seconds int) (time.Duration, error) {
	if seconds < 1 {
		return 0, errInvalidInterval
	}
	return time.Duration(seconds) * time.Second, nil
}

func watchBalances(ctx context.Context, a *app) {
	if a.json {
		fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
		return
	}
	period, err := watchPeriod(watchInterval)
	if err != nil {
		a.fail(err)
	}

	if a.cfg.MetricsAddr != "" {
		serveMetrics(ctx, a)
	}

	fmt.Printf("\nWatching balance of %s\n", color.CyanString(a.session.User()))
	fmt.Printf("Refreshing every %d seconds. Press Ctrl+C to stop.\n\n", watchInterval)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	var last *types.AvailableBalance
	for {
		obs, err := a.session.RefreshBalances(ctx)
		switch {
		case errors.Is(err, context.Canceled):
			return
		case err != nil:
			color.Red("Error: %v", err)
		default:
			displayBalanceLine(obs.Balance, last)
			b := obs.Balance
			last = &b
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// serveMetrics exposes the session's collectors until ctx is done.
func serveMetrics(ctx context.Context, a *app) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: a.cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.logger.Info("serving metrics", "addr", a.cfg.MetricsAddr)
}

func displayBalance(obs refresh.Observation) {
	banner("AVAILABLE BALANCE", 60, color.Green)

	fmt.Printf("\n  ckUSDC:    %s\n", color.CyanString(obs.Balance.USDC.StringFixed(6)))
	fmt.Printf("  ckUSDT:    %s\n", color.CyanString(obs.Balance.USDT.StringFixed(6)))
	status := color.HiBlackString("unchanged after %d reads", obs.Attempts)
	if obs.Changed {
		status = color.GreenString("updated after %d reads", obs.Attempts)
	}
	fmt.Printf("  Refresh:   %s\n", status)

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func displayBalanceLine(b types.AvailableBalance, last *types.AvailableBalance) {
	line := fmt.Sprintf("[%s] ckUSDC %s  ckUSDT %s",
		time.Now().Format("15:04:05"), b.USDC.StringFixed(6), b.USDT.StringFixed(6))
	if last != nil && !last.Equal(b) {
		color.Yellow("%s  (changed)", line)
		return
	}
	fmt.Println(line)
}
