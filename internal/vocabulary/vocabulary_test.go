package vocabulary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_CaseInsensitiveAndCanonical(t *testing.T) {
	v := Default()

	assert.Equal(t, []string{"TradeExecutor"}, v.Match("The Trade Executor signs orders."))
	assert.Equal(t, []string{"TradeExecutor"}, v.Match("THE TRADE EXECUTOR SIGNS ORDERS."))
	assert.Equal(t, []string{"TradeExecutor"}, v.Match("tradeexecutor, Trade  Executor and Executor"))
}

func TestDefault_WordBoundaries(t *testing.T) {
	v := Default()
	assert.Empty(t, v.Match("Executors are not the same word"))
	assert.Empty(t, v.Match("JupiterX"))
}

func TestMatch_MultipleSorted(t *testing.T) {
	v := Default()
	got := v.Match("Risk Engine calls Jupiter, then the keystore and the RiskEngine again.")
	assert.Equal(t, []string{"Jupiter", "Keystore", "RiskEngine"}, got)
}

func TestNew_NormalisesNamesAndMergesDuplicates(t *testing.T) {
	v, err := New(map[string][]string{
		"Order Book": {"order book"},
		"OrderBook":  {"/\\bob\\b/"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"OrderBook"}, v.Names())
	assert.Equal(t, []string{"OrderBook"}, v.Match("the OB is updated"))
	assert.Equal(t, []string{"OrderBook"}, v.Match("the Order   Book is updated"))
}

func TestNew_EmptyFormsUseName(t *testing.T) {
	v, err := New(map[string][]string{"Ledger": nil})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ledger"}, v.Match("write to the ledger"))
}

func TestNew_InvalidRegex(t *testing.T) {
	_, err := New(map[string][]string{"Bad": {"/([/"}})
	require.Error(t, err)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	require.NoError(t, os.WriteFile(path, []byte("components:\n  Gateway: [API Gateway, Gateway]\n"), 0o644))

	v, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Gateway"}, v.Match("requests enter through the api gateway"))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
