package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"vaultswap/pkg/types"
)

var tokensCmd = &cobra.Command{
	Use:     "list-tokens",
	Aliases: []string{"tokens", "ls"},
	Short:   "List the pool's tokens and their ledgers",
	Long: `List the two pool assets with the ledger that holds each of them and its
decimals, as configured on the pool service.

Examples:
  vaultswap list-tokens
  vaultswap tokens --json`,
	Args: cobra.NoArgs,
	Run:  runListTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)
}

func runListTokens(cmd *cobra.Command, args []string) {
	a := setup(cmd)
	ctx, cancel := signalContext()
	defer cancel()

	var meta types.TokenMeta
	err := a.withSpinner("Fetching token metadata...", func() error {
		var err error
		meta, err = a.session.TokenMeta(ctx)
		return err
	})
	if err != nil {
		a.fail(err)
	}

	// Output
	if a.json {
		out := make([]map[string]interface{}, 0, len(types.Assets))
		for _, asset := range types.Assets {
			info := meta.Of(asset)
			out = append(out, map[string]interface{}{
				"symbol":   asset,
				"variant":  asset.Variant(),
				"ledger":   info.Ledger,
				"decimals": info.Decimals,
			})
		}
		printJSON(out)
		return
	}
	displayTokens(meta)
}

func displayTokens(meta types.TokenMeta) {
	banner("POOL TOKENS", 70, color.Green)
	fmt.Println()

	for _, asset := range types.Assets {
		info := meta.Of(asset)
		ledger := info.Ledger
		// Truncate ledger id if too long
		if len(ledger) > 40 {
			ledger = ledger[:37] + "..."
		}

		fmt.Printf("  %-10s  %2d decimals  %s\n",
			color.YellowString(string(asset)),
			info.Decimals,
			color.HiBlackString(ledger))
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}
