package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"vaultswap/pkg/types"
)

var (
	// <amount> <asset> TO <asset>
	exactInputPattern = regexp.MustCompile(`^(\d+\.?\d*)\s+([A-Z0-9]+)\s+(?:TO|FOR)\s+([A-Z0-9]+)$`)
	// <asset> TO <amount> <asset>
	exactOutputPattern = regexp.MustCompile(`^([A-Z0-9]+)\s+(?:TO|FOR)\s+(\d+\.?\d*)\s+([A-Z0-9]+)$`)
)

// ParseSwapCommand parses a natural language swap command
// Examples:
//   - "swap 10 usdc to usdt" spends exactly 10 ckUSDC
//   - "ckUSDC to 25 ckUSDT" receives 25 ckUSDT
func ParseSwapCommand(command string) (*types.SwapRequest, error) {
	// Normalize the command
	command = strings.Join(strings.Fields(strings.ToUpper(command)), " ")

	// Remove the word "SWAP" if present at the beginning
	command = strings.TrimPrefix(command, "SWAP ")

	var (
		mode             types.SwapMode
		amount, from, to string
	)
	if m := exactInputPattern.FindStringSubmatch(command); m != nil {
		mode, amount, from, to = types.ExactInput, m[1], m[2], m[3]
	} else if m := exactOutputPattern.FindStringSubmatch(command); m != nil {
		mode, from, amount, to = types.ExactOutput, m[1], m[2], m[3]
	} else {
		return nil, fmt.Errorf("invalid swap command format. Expected: '<amount> <asset> to <asset>' or '<asset> to <amount> <asset>' (e.g., '10 usdc to usdt')")
	}

	req := &types.SwapRequest{Mode: mode}
	var err error
	if req.AssetIn, err = types.ParseAsset(from); err != nil {
		return nil, err
	}
	if req.AssetOut, err = types.ParseAsset(to); err != nil {
		return nil, err
	}
	if req.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}

	if err := ValidateSwapRequest(req); err != nil {
		return nil, err
	}
	return req, nil
}

// ValidateSwapRequest validates that a swap request has all required fields
func ValidateSwapRequest(req *types.SwapRequest) error {
	if req.Amount.Sign() <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	if !req.AssetIn.Valid() {
		return fmt.Errorf("source asset is required")
	}
	if !req.AssetOut.Valid() {
		return fmt.Errorf("destination asset is required")
	}
	if req.AssetIn == req.AssetOut {
		return fmt.Errorf("cannot swap %s for itself", req.AssetIn)
	}
	return nil
}
