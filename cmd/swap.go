package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"vaultswap/pkg/parser"
	"vaultswap/pkg/session"
	"vaultswap/pkg/solver"
	"vaultswap/pkg/types"
)

var (
	noConfirm   bool
	slippagePct string
)

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <asset> to <asset> | <asset> to <amount> <asset>",
	Short: "Price a swap without executing it",
	Long: `Price a swap in either direction.

"<amount> <asset> to <asset>" spends exactly <amount>; "<asset> to <amount> <asset>"
searches for the input that yields exactly <amount>, bounded by your available
balance.

Examples:
  vaultswap quote 10 usdc to usdt
  vaultswap quote usdt to 250 usdc`,
	Args: cobra.MinimumNArgs(1),
	Run:  runQuote,
}

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <asset> to <asset> | <asset> to <amount> <asset>",
	Short: "Perform a swap between ckUSDC and ckUSDT",
	Long: `Swap between ckUSDC and ckUSDT from your available pool balance.

The swap is submitted with a minimum output of the quoted output less the
slippage tolerance (default 0.5%). Balances are refreshed afterwards.

Examples:
  vaultswap swap 10 usdc to usdt
  vaultswap swap usdc to 25 usdt --slippage 0.3

  # Skip the confirmation
  vaultswap swap 10 usdc to usdt --yes`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
	swapCmd.Flags().StringVar(&slippagePct, "slippage", "", "Slippage tolerance in percent (default from config)")
}

func runQuote(cmd *cobra.Command, args []string) {
	req, err := parser.ParseSwapCommand(strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	a := setup(cmd)
	ctx, cancel := signalContext()
	defer cancel()

	res, err := quote(ctx, a, req)
	if err != nil {
		a.fail(err)
	}

	if a.json {
		printJSON(quoteJSON(req, res))
		return
	}
	displayQuote(req, res)
}

func runSwap(cmd *cobra.Command, args []string) {
	req, err := parser.ParseSwapCommand(strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	a := setup(cmd)
	ctx, cancel := signalContext()
	defer cancel()

	slippage := a.cfg.SlippagePct
	if slippagePct != "" {
		if slippage, err = decimal.NewFromString(slippagePct); err != nil {
			a.fail(fmt.Errorf("invalid slippage %q: %w", slippagePct, err))
		}
	}

	res, err := quote(ctx, a, req)
	if err != nil {
		a.fail(err)
	}
	if !a.json {
		displayQuote(req, res)
		fmt.Printf("  Slippage:          %s%%\n", slippage)
	}

	// Ask for confirmation
	if !noConfirm && !a.json {
		if !confirm("Proceed with swap?") {
			fmt.Println("\nSwap cancelled.")
			os.Exit(0)
		}
	}

	var receipt types.SwapReceipt
	err = a.withSpinner("Submitting swap...", func() error {
		var err error
		receipt, err = a.session.Swap(ctx, *req, slippage)
		return err
	})
	if err != nil {
		a.fail(err)
	}

	if a.json {
		printJSON(map[string]interface{}{
			"asset_in":   receipt.AssetIn,
			"asset_out":  receipt.AssetOut,
			"amount_in":  receipt.AmountIn.String(),
			"amount_out": receipt.AmountOut.String(),
			"min_out":    receipt.MinOut.String(),
			"status":     "executed",
		})
		return
	}

	color.Green("\n✓ Swap executed")
	fmt.Printf("  Spent:      %s %s\n", receipt.AmountIn.StringFixed(6), color.YellowString(string(receipt.AssetIn)))
	fmt.Printf("  Received:   %s %s\n", receipt.AmountOut.StringFixed(6), color.YellowString(string(receipt.AssetOut)))
	fmt.Printf("  Min output: %s\n", receipt.MinOut.StringFixed(6))
	if bal, ok := a.session.Balance(); ok {
		printSuccess(fmt.Sprintf("Available: %s ckUSDC, %s ckUSDT", bal.USDC.StringFixed(6), bal.USDT.StringFixed(6)))
	}
}

// quote prices req. Exact-output requests are bounded by the available
// balance, so it is read first when a principal is configured.
func quote(ctx context.Context, a *app, req *types.SwapRequest) (solver.Result, error) {
	var res solver.Result
	err := a.withSpinner("Fetching quote...", func() error {
		if req.Mode == types.ExactOutput {
			if _, err := a.session.ReadBalance(ctx); err != nil && !errors.Is(err, session.ErrNoUser) {
				a.logger.Warn("balance read failed, quoting unbounded", "error", err)
			}
		}
		var err error
		res, err = a.session.Quote(ctx, *req)
		return err
	})
	return res, err
}

func quoteJSON(req *types.SwapRequest, res solver.Result) map[string]interface{} {
	return map[string]interface{}{
		"mode":          req.Mode.String(),
		"asset_in":      req.AssetIn,
		"asset_out":     req.AssetOut,
		"amount_in":     res.AmountIn.String(),
		"amount_out":    res.Quote.AmountOut.String(),
		"fee":           res.Quote.Fee.String(),
		"price":         res.Quote.Price.String(),
		"converged":     res.Converged,
		"bound_limited": res.BoundLimited,
		"iterations":    res.Iterations,
	}
}

func displayQuote(req *types.SwapRequest, res solver.Result) {
	banner("SWAP QUOTE", 60, color.Green)

	fmt.Printf("\n  Mode:              %s\n", req.Mode)
	fmt.Printf("  From:              %s %s\n", res.AmountIn.StringFixed(6), color.YellowString(string(req.AssetIn)))
	fmt.Printf("  To:                ~%s %s\n", res.Quote.AmountOut.StringFixed(6), color.YellowString(string(req.AssetOut)))
	fmt.Printf("  Fee:               %s\n", res.Quote.Fee.StringFixed(6))
	fmt.Printf("  Price:             %s\n", res.Quote.Price.StringFixed(6))

	if req.Mode == types.ExactOutput && !res.Converged {
		if res.BoundLimited {
			color.Red("  Your available %s only covers ~%s %s", req.AssetIn, res.Quote.AmountOut.StringFixed(6), req.AssetOut)
		} else {
			color.Yellow("  Could not match %s %s exactly", req.Amount, req.AssetOut)
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}
