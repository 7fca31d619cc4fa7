package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"vaultswap/pkg/types"
)

var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Show pool parameters, reserves and statistics",
	Long: `Show the pool's amplification, fee, reserves and share supply together with
the live ledger reserves and the rolling 24h/7d statistics.

Examples:
  vaultswap pool
  vaultswap pool --json`,
	Args: cobra.NoArgs,
	Run:  runPool,
}

func init() {
	rootCmd.AddCommand(poolCmd)
}

func runPool(cmd *cobra.Command, args []string) {
	a := setup(cmd)
	ctx, cancel := signalContext()
	defer cancel()

	var (
		info     types.PoolInfo
		reserves types.PairAmounts
		stats    types.StatsSnapshot
	)
	err := a.withSpinner("Fetching pool state...", func() error {
		var err error
		if info, err = a.session.PoolInfo(ctx); err != nil {
			return err
		}
		if reserves, err = a.session.Reserves(ctx); err != nil {
			return err
		}
		stats, err = a.session.Stats(ctx)
		return err
	})
	if err != nil {
		a.fail(err)
	}

	if a.json {
		printJSON(map[string]interface{}{
			"amplification":  info.Amplification,
			"fee_bps":        info.FeeBps,
			"reserve_usdc":   info.Reserves.USDC.String(),
			"reserve_usdt":   info.Reserves.USDT.String(),
			"total_shares":   info.TotalShares.String(),
			"virtual_price":  info.VirtualPrice.String(),
			"live_usdc":      reserves.USDC.String(),
			"live_usdt":      reserves.USDT.String(),
			"tvl":            stats.TVL.String(),
			"volume_24h":     stats.Volume24h.String(),
			"volume_7d":      stats.Volume7d.String(),
			"fees_24h":       stats.Fees24h.String(),
			"fees_7d":        stats.Fees7d.String(),
			"swaps_24h":      stats.Swaps24h,
			"apy_24h_pct":    stats.APY24hPct.String(),
			"stats_taken_at": stats.At,
		})
		return
	}

	banner("POOL", 60, color.Green)
	fmt.Printf("\n  Amplification:   %d\n", info.Amplification)
	fmt.Printf("  Fee:             %d bps\n", info.FeeBps)
	fmt.Printf("  Reserves:        %s ckUSDC / %s ckUSDT\n", info.Reserves.USDC.StringFixed(2), info.Reserves.USDT.StringFixed(2))
	fmt.Printf("  Live reserves:   %s ckUSDC / %s ckUSDT\n", reserves.USDC.StringFixed(2), reserves.USDT.StringFixed(2))
	fmt.Printf("  Total shares:    %s\n", info.TotalShares.StringFixed(6))
	fmt.Printf("  Virtual price:   %s\n", info.VirtualPrice.StringFixed(6))

	color.Cyan("\n  Last 24h / 7d (as of %s)", stats.At.Format("2006-01-02 15:04:05"))
	fmt.Println("  " + strings.Repeat("-", 56))
	fmt.Printf("  TVL:             %s\n", stats.TVL.StringFixed(2))
	fmt.Printf("  Volume:          %s / %s\n", stats.Volume24h.StringFixed(2), stats.Volume7d.StringFixed(2))
	fmt.Printf("  Fees:            %s / %s\n", stats.Fees24h.StringFixed(2), stats.Fees7d.StringFixed(2))
	fmt.Printf("  Swaps (24h):     %d\n", stats.Swaps24h)
	fmt.Printf("  APY (24h):       %s%%\n", color.GreenString(stats.APY24hPct.StringFixed(2)))

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}
