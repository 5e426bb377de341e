package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testContract = "0x1111111111111111111111111111111111111111"
	testRouter1  = "0x2222222222222222222222222222222222222222"
	testRouter2  = "0x3333333333333333333333333333333333333333"
	testUSDC     = "0x4444444444444444444444444444444444444444"
	testNEAR     = "0x5555555555555555555555555555555555555555"
)

const auroraJSON = `{
  "arbContract": "` + testContract + `",
  "minBasisPointsPerTrade": 10,
  "routers": [
    {"dex": "trisolaris", "address": "` + testRouter1 + `"},
    {"dex": "wannaswap", "address": "` + testRouter2 + `"}
  ],
  "baseAssets": [{"symbol": "USDC", "address": "` + testUSDC + `"}],
  "tokens": [{"symbol": "NEAR", "address": "` + testNEAR + `"}],
  "routes": [["` + testRouter1 + `", "` + testRouter2 + `", "` + testUSDC + `", "` + testNEAR + `"]],
  "engine": {"backoffInterval": "2s", "maxNonceRetries": 5}
}`

const fantomYAML = `
arbContract: "` + testContract + `"
minBasisPointsPerTrade: 25
routers:
  - dex: spooky
    address: "` + testRouter1 + `"
baseAssets:
  - symbol: USDC
    address: "` + testUSDC + `"
tokens:
  - symbol: BOO
    address: "` + testNEAR + `"
engine:
  reportInterval: 1m
  gasPriceBumpPct: 0.1
`

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestLoadConfigJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "aurora.json", auroraJSON)

	cfg, err := LoadConfig(dir, NetworkAurora)
	require.NoError(t, err)

	assert.Equal(t, NetworkAurora, cfg.Network)
	assert.Equal(t, 10, cfg.MinBasisPoints)
	assert.Len(t, cfg.Routers, 2)
	assert.Len(t, cfg.Routes, 1)
	assert.Equal(t, common.HexToAddress(testContract), cfg.Contract())

	// file values win, network defaults fill the rest
	assert.Equal(t, 2*time.Second, cfg.Engine.BackoffInterval.Duration)
	assert.Equal(t, 5, cfg.Engine.MaxNonceRetries)
	assert.Equal(t, "WETH", cfg.Engine.WrappedNativeSymbol)
	assert.Equal(t, PriceSourceEtherscan, cfg.Engine.PriceSource)
	assert.Equal(t, 5*time.Minute, cfg.Engine.ReportInterval.Duration)
}

func TestLoadConfigYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "fantom.yaml", fantomYAML)

	cfg, err := LoadConfig(dir, NetworkFantom)
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.MinBasisPoints)
	assert.Empty(t, cfg.Routes)
	assert.Equal(t, time.Minute, cfg.Engine.ReportInterval.Duration)
	assert.InDelta(t, 0.1, cfg.Engine.GasPriceBumpPct, 1e-9)
	assert.Equal(t, "WFTM", cfg.Engine.WrappedNativeSymbol)
	assert.Equal(t, PriceSourceCoinGecko, cfg.Engine.PriceSource)
	assert.Equal(t, "fantom", cfg.Engine.NativeAssetID)
}

func TestLoadConfigContractFromEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "aurora.json", auroraJSON)

	override := "0x9999999999999999999999999999999999999999"
	t.Setenv("AURORA_MAINNET_ARB_CONTRACT", override)

	cfg, err := LoadConfig(dir, NetworkAurora)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(override), cfg.Contract())
}

func TestLoadConfigErrors(t *testing.T) {
	t.Run("UnknownNetwork", func(t *testing.T) {
		_, err := LoadConfig(t.TempDir(), "polygon")
		assert.ErrorIs(t, err, ErrUnknownNetwork)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := LoadConfig(t.TempDir(), NetworkAurora)
		assert.ErrorContains(t, err, "no matching config file")
	})

	t.Run("ShortRoute", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "aurora.json", `{
			"arbContract": "`+testContract+`",
			"baseAssets": [{"symbol": "USDC", "address": "`+testUSDC+`"}],
			"routes": [["`+testRouter1+`", "`+testRouter2+`", "`+testUSDC+`"]]
		}`)
		_, err := LoadConfig(dir, NetworkAurora)
		assert.ErrorContains(t, err, "route 0 has 3 elements")
	})
}

func TestValidateConfigAggregatesErrors(t *testing.T) {
	cfg := &Config{
		ContractAddress: "nope",
		MinBasisPoints:  -1,
		Engine:          EngineConfig{PriceSource: "kraken"},
	}

	err := cfg.ValidateConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arbContract must be a hex address")
	assert.Contains(t, err.Error(), "minBasisPointsPerTrade must not be negative")
	assert.Contains(t, err.Error(), "baseAssets must not be empty")
	assert.Contains(t, err.Error(), "routers and tokens are required")
	assert.Contains(t, err.Error(), "engine config error")
}

func TestSymbolOf(t *testing.T) {
	cfg := &Config{
		BaseAssets: []Asset{{Symbol: "USDC", Address: testUSDC}},
		Tokens:     []Asset{{Symbol: "NEAR", Address: testNEAR}},
	}

	symbol, ok := cfg.SymbolOf(common.HexToAddress(testNEAR))
	assert.True(t, ok)
	assert.Equal(t, "NEAR", symbol)

	_, ok = cfg.SymbolOf(common.HexToAddress(testContract))
	assert.False(t, ok)
}

func TestLoadSecrets(t *testing.T) {
	t.Setenv("FANTOM_MAINNET_URL", "https://rpc.ftm.tools")
	t.Setenv("FANTOM_MAINNET_PRIVATE_KEY", "0xabc123")
	t.Setenv("BOT_TOKEN", "token")

	secrets, err := LoadSecrets(NetworkFantom)
	require.NoError(t, err)
	assert.Equal(t, "https://rpc.ftm.tools", secrets.RPCURL)
	assert.Equal(t, "abc123", secrets.PrivateKey)
	assert.Equal(t, "token", secrets.BotToken)

	t.Setenv("FANTOM_MAINNET_PRIVATE_KEY", "")
	_, err = LoadSecrets(NetworkFantom)
	assert.ErrorContains(t, err, "private key not found")
}

func TestShippedConfigsLoad(t *testing.T) {
	t.Setenv("AURORA_MAINNET_ARB_CONTRACT", "")
	t.Setenv("FANTOM_MAINNET_ARB_CONTRACT", "")

	aurora, err := LoadConfig(".", NetworkAurora)
	require.NoError(t, err)
	assert.Empty(t, aurora.Routes)
	assert.Equal(t, "WETH", aurora.Engine.WrappedNativeSymbol)
	assert.Equal(t, PriceSourceEtherscan, aurora.Engine.PriceSource)
	assert.Equal(t, 10*time.Minute, aurora.Engine.StallTimeout.Duration)
	assert.Equal(t, 3*time.Minute, aurora.Engine.ConfirmTimeout.Duration)

	fantom, err := LoadConfig(".", NetworkFantom)
	require.NoError(t, err)
	assert.Len(t, fantom.Routes, 2)
	assert.Equal(t, "WFTM", fantom.Engine.WrappedNativeSymbol)
	assert.Equal(t, 20*time.Second, fantom.Engine.RPCTimeout.Duration)
}
