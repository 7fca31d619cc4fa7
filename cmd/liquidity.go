package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"vaultswap/pkg/types"
	"vaultswap/pkg/units"
)

var (
	liqUSDC   string
	liqUSDT   string
	liqShares string
)

var liquidityCmd = &cobra.Command{
	Use:     "liquidity",
	Aliases: []string{"liq"},
	Short:   "Provide liquidity to the pool",
	Long: `Add or remove liquidity, claim accrued fees and inspect your position.

Examples:
  vaultswap liquidity add --usdc 100 --usdt 100
  vaultswap liquidity remove --shares 50
  vaultswap liquidity claim
  vaultswap liquidity position`,
}

var liquidityAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Deposit ckUSDC and/or ckUSDT into the pool for shares",
	Args:  cobra.NoArgs,
	Run:   runLiquidityAdd,
}

var liquidityRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Burn pool shares for ckUSDC and ckUSDT",
	Args:  cobra.NoArgs,
	Run:   runLiquidityRemove,
}

var liquidityClaimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Claim accrued swap fees",
	Args:  cobra.NoArgs,
	Run:   runLiquidityClaim,
}

var liquidityPositionCmd = &cobra.Command{
	Use:   "position",
	Short: "Show your shares and unclaimed fees",
	Args:  cobra.NoArgs,
	Run:   runLiquidityPosition,
}

func init() {
	rootCmd.AddCommand(liquidityCmd)
	liquidityCmd.AddCommand(liquidityAddCmd)
	liquidityCmd.AddCommand(liquidityRemoveCmd)
	liquidityCmd.AddCommand(liquidityClaimCmd)
	liquidityCmd.AddCommand(liquidityPositionCmd)

	liquidityAddCmd.Flags().StringVar(&liqUSDC, "usdc", "0", "Amount of ckUSDC to add")
	liquidityAddCmd.Flags().StringVar(&liqUSDT, "usdt", "0", "Amount of ckUSDT to add")
	liquidityRemoveCmd.Flags().StringVar(&liqShares, "shares", "", "Shares to burn (REQUIRED)")
	_ = liquidityRemoveCmd.MarkFlagRequired("shares")
}

func runLiquidityAdd(cmd *cobra.Command, args []string) {
	a := setup(cmd)
	ctx, cancel := signalContext()
	defer cancel()

	usdc, err := units.Parse(liqUSDC)
	if err != nil {
		a.fail(fmt.Errorf("--usdc: %w", err))
	}
	usdt, err := units.Parse(liqUSDT)
	if err != nil {
		a.fail(fmt.Errorf("--usdt: %w", err))
	}

	var shares decimal.Decimal
	err = a.withSpinner("Adding liquidity...", func() error {
		var err error
		shares, err = a.session.AddLiquidity(ctx, usdc, usdt)
		return err
	})
	if err != nil {
		a.fail(err)
	}

	if a.json {
		printJSON(map[string]interface{}{"usdc": usdc.String(), "usdt": usdt.String(), "shares": shares.String()})
		return
	}
	color.Green("\n✓ Liquidity added")
	printSuccess(fmt.Sprintf("  Minted %s shares", color.CyanString(shares.StringFixed(6))))
}

func runLiquidityRemove(cmd *cobra.Command, args []string) {
	a := setup(cmd)
	ctx, cancel := signalContext()
	defer cancel()

	shares, err := units.Parse(liqShares)
	if err != nil {
		a.fail(fmt.Errorf("--shares: %w", err))
	}

	var out types.PairAmounts
	err = a.withSpinner("Removing liquidity...", func() error {
		var err error
		out, err = a.session.RemoveLiquidity(ctx, shares)
		return err
	})
	if err != nil {
		a.fail(err)
	}

	if a.json {
		printJSON(map[string]interface{}{"shares": shares.String(), "usdc": out.USDC.String(), "usdt": out.USDT.String()})
		return
	}
	color.Green("\n✓ Liquidity removed")
	printSuccess(fmt.Sprintf("  Received %s ckUSDC and %s ckUSDT", out.USDC.StringFixed(6), out.USDT.StringFixed(6)))
}

func runLiquidityClaim(cmd *cobra.Command, args []string) {
	a := setup(cmd)
	ctx, cancel := signalContext()
	defer cancel()

	var out types.PairAmounts
	err := a.withSpinner("Claiming fees...", func() error {
		var err error
		out, err = a.session.ClaimFee(ctx)
		return err
	})
	if err != nil {
		a.fail(err)
	}

	if a.json {
		printJSON(map[string]interface{}{"usdc": out.USDC.String(), "usdt": out.USDT.String()})
		return
	}
	color.Green("\n✓ Fees claimed")
	printSuccess(fmt.Sprintf("  Claimed %s ckUSDC and %s ckUSDT", out.USDC.StringFixed(6), out.USDT.StringFixed(6)))
}

func runLiquidityPosition(cmd *cobra.Command, args []string) {
	a := setup(cmd)
	ctx, cancel := signalContext()
	defer cancel()

	var pos types.Position
	err := a.withSpinner("Fetching position...", func() error {
		var err error
		pos, err = a.session.Position(ctx)
		return err
	})
	if err != nil {
		a.fail(err)
	}

	if a.json {
		printJSON(map[string]interface{}{
			"shares":         pos.Shares.String(),
			"unclaimed_usdc": pos.Unclaimed.USDC.String(),
			"unclaimed_usdt": pos.Unclaimed.USDT.String(),
		})
		return
	}

	banner("LIQUIDITY POSITION", 60, color.Green)
	fmt.Printf("\n  Shares:          %s\n", color.CyanString(pos.Shares.StringFixed(6)))
	fmt.Printf("  Unclaimed fees:  %s ckUSDC / %s ckUSDT\n\n", pos.Unclaimed.USDC.StringFixed(6), pos.Unclaimed.USDT.StringFixed(6))
}
