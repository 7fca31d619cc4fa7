package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vaultswap",
	Short: "A CLI for swapping and providing liquidity in the ckUSDC/ckUSDT pool",
	Long: `vaultswap is a command-line client for a remote ckUSDC/ckUSDT stable pool.
It quotes and executes swaps in either direction, including swaps for an exact
output amount, tracks your available balance and browses pool activity.

Examples:
  vaultswap quote 10 usdc to usdt
  vaultswap swap usdc to 25 usdt --slippage 0.3
  vaultswap balance --watch
  vaultswap activity --pages 3
  vaultswap liquidity add --usdc 100 --usdt 100`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
