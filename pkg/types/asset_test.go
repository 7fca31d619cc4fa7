package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAsset(t *testing.T) {
	for _, in := range []string{"usdc", "USDC", "ckUSDC", " ckusdc "} {
		a, err := ParseAsset(in)
		require.NoError(t, err, in)
		assert.Equal(t, CkUSDC, a)
	}

	a, err := ParseAsset("usdt")
	require.NoError(t, err)
	assert.Equal(t, CkUSDT, a)

	_, err = ParseAsset("ICP")
	assert.Error(t, err)
}

func TestAssetVariant(t *testing.T) {
	assert.Equal(t, "USDC", CkUSDC.Variant())
	assert.Equal(t, "USDT", CkUSDT.Variant())
	assert.Equal(t, CkUSDT, CkUSDC.Other())
	assert.Equal(t, CkUSDC, AssetFromVariant("BOB"))
}

func TestTokenVariantJSON(t *testing.T) {
	var tagged TokenVariant
	require.NoError(t, json.Unmarshal([]byte(`{"USDT":null}`), &tagged))
	assert.Equal(t, CkUSDT, tagged.Asset())

	var plain TokenVariant
	require.NoError(t, json.Unmarshal([]byte(`"USDC"`), &plain))
	assert.Equal(t, CkUSDC, plain.Asset())

	out, err := json.Marshal(TokenVariant("USDT"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"USDT":null}`, string(out))

	var bad TokenVariant
	assert.Error(t, json.Unmarshal([]byte(`{}`), &bad))
}
