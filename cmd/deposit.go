package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"vaultswap/pkg/client"
	"vaultswap/pkg/deposit"
	"vaultswap/pkg/types"
	"vaultswap/pkg/units"
)

var (
	showTarget    bool
	withdrawTo    string
	withdrawToSub string
)

var depositCmd = &cobra.Command{
	Use:   "deposit [<amount> <asset>]",
	Short: "Deposit tokens into your pool balance",
	Long: `Transfer tokens from your ledger account into your pool subaccount. Requires
ledger_url to be configured. With --target, only print the deposit account.

Examples:
  vaultswap deposit --target
  vaultswap deposit 100 usdc`,
	Args: cobra.RangeArgs(0, 2),
	Run:  runDeposit,
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw <amount> <asset> --to <principal>",
	Short: "Withdraw tokens from your pool balance",
	Long: `Send tokens from your pool subaccount to a ledger account.

Examples:
  vaultswap withdraw 50 usdt --to aaaaa-aa
  vaultswap withdraw 50 usdt --to aaaaa-aa --subaccount 0x00...01`,
	Args: cobra.ExactArgs(2),
	Run:  runWithdraw,
}

func init() {
	rootCmd.AddCommand(depositCmd)
	rootCmd.AddCommand(withdrawCmd)

	depositCmd.Flags().BoolVar(&showTarget, "target", false, "Only show the deposit account")
	withdrawCmd.Flags().StringVar(&withdrawTo, "to", "", "Recipient principal (REQUIRED)")
	withdrawCmd.Flags().StringVar(&withdrawToSub, "subaccount", "", "Recipient subaccount as 0x-prefixed hex (optional)")
	_ = withdrawCmd.MarkFlagRequired("to")
}

func parseAmountAsset(args []string) (types.Asset, string, error) {
	asset, err := types.ParseAsset(args[1])
	if err != nil {
		return "", "", err
	}
	return asset, args[0], nil
}

func runDeposit(cmd *cobra.Command, args []string) {
	a := setup(cmd)
	ctx, cancel := signalContext()
	defer cancel()

	if showTarget || len(args) == 0 {
		var target types.DepositTarget
		err := a.withSpinner("Fetching deposit account...", func() error {
			var err error
			target, err = a.session.DepositTarget(ctx)
			return err
		})
		if err != nil {
			a.fail(err)
		}
		if a.json {
			printJSON(map[string]interface{}{
				"owner":      target.Owner,
				"subaccount": deposit.SubaccountHex(target.Subaccount),
				"account_id": target.AccountIDHex,
			})
			return
		}
		displayDepositTarget(target)
		return
	}

	if len(args) != 2 {
		a.fail(fmt.Errorf("expected <amount> <asset>"))
	}
	asset, rawAmount, err := parseAmountAsset(args)
	if err != nil {
		a.fail(err)
	}
	amount, err := units.Parse(rawAmount)
	if err != nil {
		a.fail(err)
	}

	if !a.json {
		color.Yellow("\n🔄 Depositing %s %s into your pool balance", amount, asset)
		if !confirm("Proceed with deposit?") {
			fmt.Println("\nDeposit cancelled.")
			os.Exit(0)
		}
	}

	var rec deposit.Receipt
	err = a.withSpinner("Sending deposit...", func() error {
		var err error
		rec, err = a.session.Deposit(ctx, asset, amount)
		return err
	})
	if err != nil {
		a.fail(err)
	}

	if a.json {
		printJSON(map[string]interface{}{
			"asset":  rec.Asset,
			"amount": rec.Amount.String(),
			"block":  rec.BlockIndex.String(),
			"to":     rec.Target.Owner,
		})
		return
	}
	color.Green("\n✓ Deposit sent successfully!")
	fmt.Printf("  Block index: %s\n", color.CyanString(rec.BlockIndex.String()))
	if a.verbose {
		fmt.Printf("  Subaccount:  %s\n", deposit.SubaccountHex(rec.Target.Subaccount))
	}
	fmt.Println()
}

func runWithdraw(cmd *cobra.Command, args []string) {
	a := setup(cmd)
	ctx, cancel := signalContext()
	defer cancel()

	asset, rawAmount, err := parseAmountAsset(args)
	if err != nil {
		a.fail(err)
	}
	amount, err := units.Parse(rawAmount)
	if err != nil {
		a.fail(err)
	}
	sub, err := deposit.ParseSubaccount(withdrawToSub)
	if err != nil {
		a.fail(err)
	}
	to := client.Account{Owner: withdrawTo, Subaccount: sub}

	var res string
	err = a.withSpinner("Withdrawing...", func() error {
		var err error
		res, err = a.session.Withdraw(ctx, asset, to, amount)
		return err
	})
	if err != nil {
		a.fail(err)
	}

	if a.json {
		printJSON(map[string]interface{}{"asset": asset, "amount": amount.String(), "to": withdrawTo, "result": res})
		return
	}
	color.Green("\n✓ Withdrawal sent")
	printSuccess(fmt.Sprintf("  %s", res))
}

func displayDepositTarget(t types.DepositTarget) {
	banner("DEPOSIT ACCOUNT", 70, color.Yellow)
	fmt.Printf("\nSend ckUSDC or ckUSDT to:\n\n")
	fmt.Printf("  Owner:       %s\n", color.CyanString(t.Owner))
	fmt.Printf("  Subaccount:  %s\n", color.CyanString(deposit.SubaccountHex(t.Subaccount)))
	if t.AccountIDHex != "" {
		fmt.Printf("  Account ID:  %s\n", color.HiBlackString(t.AccountIDHex))
	}
	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}
