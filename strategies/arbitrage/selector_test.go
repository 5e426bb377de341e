package arbitrage

import (
	"math/rand"
	"testing"

	"github.com/michaelpento.lv/dexarb/config"
	"github.com/michaelpento.lv/dexarb/types"
	"github.com/michaelpento.lv/dexarb/utils/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectorRoundRobin(t *testing.T) {
	cfg := testutils.TestConfig()
	cfg.Routes = [][]string{
		{testutils.RouterA.Hex(), testutils.RouterB.Hex(), testutils.USDC.Hex(), testutils.DAI.Hex()},
		{testutils.RouterB.Hex(), testutils.RouterA.Hex(), testutils.WETH.Hex(), testutils.USDC.Hex()},
		{testutils.RouterA.Hex(), testutils.RouterA.Hex(), testutils.USDC.Hex(), testutils.WETH.Hex()},
	}
	s := NewSelector(cfg, rand.New(rand.NewSource(1)))

	var got []types.Route
	for i := 0; i < 2*len(cfg.Routes); i++ {
		r, err := s.Next()
		require.NoError(t, err)
		got = append(got, r)
	}

	for i, r := range got {
		entry := cfg.Routes[i%len(cfg.Routes)]
		assert.Equal(t, entry[0], r.Router1.Hex())
		assert.Equal(t, entry[1], r.Router2.Hex())
		assert.Equal(t, entry[2], r.Token1.Hex())
		assert.Equal(t, entry[3], r.Token2.Hex())
	}
}

func TestSelectorRandomSingletonPools(t *testing.T) {
	cfg := testutils.TestConfig()
	cfg.Routers = cfg.Routers[:1]
	cfg.BaseAssets = cfg.BaseAssets[:1]

	s := NewSelector(cfg, rand.New(rand.NewSource(42)))
	want := types.Route{
		Router1: testutils.RouterA,
		Router2: testutils.RouterA,
		Token1:  testutils.USDC,
		Token2:  testutils.DAI,
	}
	for i := 0; i < 5; i++ {
		r, err := s.Next()
		require.NoError(t, err)
		assert.Equal(t, want, r)
	}
}

func TestSelectorRandomDrawsFromPools(t *testing.T) {
	cfg := testutils.TestConfig()
	s := NewSelector(cfg, rand.New(rand.NewSource(7)))

	for i := 0; i < 20; i++ {
		r, err := s.Next()
		require.NoError(t, err)
		assert.Contains(t, []string{testutils.RouterA.Hex(), testutils.RouterB.Hex()}, r.Router1.Hex())
		assert.Contains(t, []string{testutils.USDC.Hex(), testutils.WETH.Hex()}, r.Token1.Hex())
		assert.Equal(t, testutils.DAI, r.Token2)
	}
}

func TestSelectorInvalidRoute(t *testing.T) {
	t.Run("ShortEntry", func(t *testing.T) {
		cfg := testutils.TestConfig()
		cfg.Routes = [][]string{{testutils.RouterA.Hex(), testutils.RouterB.Hex(), testutils.USDC.Hex()}}
		_, err := NewSelector(cfg, rand.New(rand.NewSource(1))).Next()
		assert.ErrorIs(t, err, ErrInvalidRoute)
	})

	t.Run("BadAddress", func(t *testing.T) {
		cfg := testutils.TestConfig()
		cfg.Routes = [][]string{{testutils.RouterA.Hex(), "router-b", testutils.USDC.Hex(), testutils.DAI.Hex()}}
		_, err := NewSelector(cfg, rand.New(rand.NewSource(1))).Next()
		assert.ErrorIs(t, err, ErrInvalidRoute)
	})

	t.Run("EmptyPool", func(t *testing.T) {
		cfg := testutils.TestConfig()
		cfg.Tokens = []config.Asset{}
		_, err := NewSelector(cfg, rand.New(rand.NewSource(1))).Next()
		assert.ErrorIs(t, err, ErrInvalidRoute)
	})
}
