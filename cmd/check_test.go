package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/michaelpento.lv/dexarb/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintCheck(t *testing.T) {
	t.Setenv("FANTOM_MAINNET_URL", "https://rpc.ftm.tools")
	t.Setenv("FANTOM_MAINNET_PRIVATE_KEY", "")

	engine, err := config.DefaultEngineConfig(config.NetworkFantom)
	require.NoError(t, err)
	engine.BackoffInterval = config.Duration{Duration: 2 * time.Second}

	cfg := &config.Config{
		Network:         config.NetworkFantom,
		ContractAddress: "0x1000000000000000000000000000000000000001",
		MinBasisPoints:  25,
		Routes:          [][]string{{"0x1", "0x2", "0x3", "0x4"}},
		Engine:          engine,
	}

	var buf bytes.Buffer
	require.NoError(t, printCheck(&buf, cfg))

	out := buf.String()
	assert.Contains(t, out, "Network: fantom")
	assert.Contains(t, out, "curated (1 routes)")
	assert.Contains(t, out, "minBasisPointsPerTrade: 25")
	assert.Contains(t, out, "backoffInterval: 2s")
	assert.Contains(t, out, "FANTOM_MAINNET_URL: set")
	assert.Contains(t, out, "FANTOM_MAINNET_PRIVATE_KEY: missing")
}
