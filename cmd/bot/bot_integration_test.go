package bot

import (
	"context"
	"math/big"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/michaelpento.lv/dexarb/balance"
	"github.com/michaelpento.lv/dexarb/strategies/arbitrage"
	"github.com/michaelpento.lv/dexarb/utils/metrics"
	"github.com/michaelpento.lv/dexarb/utils/testutils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// cancelOnTrade stops the run once a trade has been reported
type cancelOnTrade struct {
	*testutils.Notifier
	cancel context.CancelFunc
}

func (c cancelOnTrade) Send(text string) {
	c.Notifier.Send(text)
	if strings.HasPrefix(text, "trade executed") {
		c.cancel()
	}
}

func TestFullIntegration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := testConfig()
	cfg.MinBasisPoints = 10
	cfg.Routes = [][]string{
		{testutils.RouterA.Hex(), testutils.RouterB.Hex(), testutils.USDC.Hex(), testutils.DAI.Hex()},
	}

	logger := zaptest.NewLogger(t)
	m := metrics.NewEngineMetrics(prometheus.NewRegistry(), "test")
	n := cancelOnTrade{Notifier: &testutils.Notifier{}, cancel: cancel}

	reader := testutils.NewBalances()
	reader.Set(testutils.USDC, big.NewInt(1_000_000))
	reader.Set(testutils.WETH, big.NewInt(5))

	chain := &testutils.Chain{AmountBack: big.NewInt(1_002_000), Nonce: 3}
	costs := &testutils.Costs{Cost: big.NewInt(500)}

	tracker := balance.NewTracker(reader, cfg, n, m, logger)
	selector := arbitrage.NewSelector(cfg, rand.New(rand.NewSource(1)))
	engine := arbitrage.NewEngine(cfg, tracker, chain, costs, chain, n, m, logger)

	b := New(cfg, Deps{
		Signer:   testutils.Contract,
		Balances: tracker,
		Routes:   selector,
		Engine:   engine,
		Notifier: n,
		Metrics:  m,
	}, logger)

	require.NoError(t, b.Run(ctx))
	assert.Equal(t, 1, chain.Submissions())
	assert.Len(t, chain.Confirmed, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Executions))
	assert.Equal(t, 1, costs.Calls)
}
