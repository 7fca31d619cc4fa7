package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Asset is one of the two swappable stable tokens.
type Asset string

const (
	CkUSDC Asset = "ckUSDC"
	CkUSDT Asset = "ckUSDT"
)

// Assets lists the swappable assets in display order.
var Assets = []Asset{CkUSDC, CkUSDT}

// Variant returns the wire variant name of the asset.
func (a Asset) Variant() string {
	switch a {
	case CkUSDC:
		return "USDC"
	case CkUSDT:
		return "USDT"
	}
	return string(a)
}

// Valid reports whether a is swappable.
func (a Asset) Valid() bool {
	return a == CkUSDC || a == CkUSDT
}

// Other returns the opposite side of the pair.
func (a Asset) Other() Asset {
	if a == CkUSDC {
		return CkUSDT
	}
	return CkUSDC
}

// ParseAsset accepts display names, wire variants and lowercase aliases.
func ParseAsset(s string) (Asset, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ckusdc", "usdc":
		return CkUSDC, nil
	case "ckusdt", "usdt":
		return CkUSDT, nil
	}
	return "", fmt.Errorf("unsupported asset %q", s)
}

// AssetFromVariant maps a wire variant to a display asset. Unknown variants
// fall back to ckUSDC.
func AssetFromVariant(v string) Asset {
	if strings.EqualFold(v, "USDT") || strings.EqualFold(v, "ckUSDT") {
		return CkUSDT
	}
	return CkUSDC
}

// TokenVariant is a token as it appears on the wire, either as a tagged
// variant ({"USDC": null}) or a plain string.
type TokenVariant string

// UnmarshalJSON accepts both encodings.
func (t *TokenVariant) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = TokenVariant(s)
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("token variant: %w", err)
	}
	for k := range m {
		*t = TokenVariant(k)
		return nil
	}
	return fmt.Errorf("token variant: empty object")
}

// MarshalJSON writes the tagged-variant form.
func (t TokenVariant) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{string(t): nil})
}

// Asset returns the display asset for the variant.
func (t TokenVariant) Asset() Asset {
	return AssetFromVariant(string(t))
}
