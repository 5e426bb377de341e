package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/michaelpento.lv/dexarb/balance"
	"github.com/michaelpento.lv/dexarb/chain"
	"github.com/michaelpento.lv/dexarb/cmd/bot"
	"github.com/michaelpento.lv/dexarb/config"
	"github.com/michaelpento.lv/dexarb/dex"
	"github.com/michaelpento.lv/dexarb/gas"
	"github.com/michaelpento.lv/dexarb/notify"
	"github.com/michaelpento.lv/dexarb/oracle"
	"github.com/michaelpento.lv/dexarb/simulator"
	"github.com/michaelpento.lv/dexarb/strategies/arbitrage"
	"github.com/michaelpento.lv/dexarb/utils"
	"github.com/michaelpento.lv/dexarb/utils/metrics"
	"github.com/michaelpento.lv/dexarb/utils/monitor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const decimalsCacheSize = 128

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the arbitrage loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBot(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runBot(ctx context.Context) error {
	log := utils.GetLogger()

	if err := config.LoadEnv(); err != nil {
		return err
	}
	cfg, err := config.LoadConfig(configDir, network)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	secrets, err := config.LoadSecrets(network)
	if err != nil {
		return err
	}

	client, err := ethclient.DialContext(ctx, secrets.RPCURL)
	if err != nil {
		return fmt.Errorf("failed to connect to %s node: %w", network, err)
	}
	defer client.Close()

	key, err := crypto.HexToECDSA(secrets.PrivateKey)
	if err != nil {
		return fmt.Errorf("invalid private key: %w", err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to get chain id: %w", err)
	}
	signer := crypto.PubkeyToAddress(key.PublicKey)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewEngineMetrics(reg, "dexarb")
	heartbeat := monitor.NewHeartbeat(reg, "dexarb", cfg.Engine.StallTimeout.Duration, log)
	heartbeat.Start(ctx, time.Minute)
	metrics.Serve(ctx, cfg.Engine.MetricsAddr, reg, heartbeat.Check, log)

	notifier := newNotifier(ctx, secrets, log)

	tokens, err := dex.NewTokenReader(client, decimalsCacheSize)
	if err != nil {
		return err
	}
	sim := simulator.NewSimulator(client, cfg.Contract(), signer)
	exec := chain.NewClient(client, cfg.Contract(), key, chainID)
	prices := newPriceOracle(cfg, secrets)

	estimator := gas.NewEstimator(sim, tokens, prices, cfg.SymbolOf, cfg.Engine, m, log)
	tracker := balance.NewTracker(tokens, cfg, notifier, m, log)
	selector := arbitrage.NewSelector(cfg, rand.New(rand.NewSource(time.Now().UnixNano())))
	engine := arbitrage.NewEngine(cfg, tracker, sim, estimator, exec, notifier, m, log)

	critical, err := utils.NewCriticalLogger(utils.CriticalLogPath)
	if err != nil {
		return fmt.Errorf("failed to open critical log: %w", err)
	}
	defer critical.Sync()

	b := bot.New(cfg, bot.Deps{
		Signer:    exec.Address(),
		Balances:  tracker,
		Routes:    selector,
		Engine:    engine,
		Notifier:  notifier,
		Metrics:   m,
		Heartbeat: heartbeat,
		Critical:  critical,
	}, log)

	return b.Run(ctx)
}

func newNotifier(ctx context.Context, secrets *config.Secrets, log *zap.Logger) notify.Notifier {
	if secrets.BotToken == "" || secrets.TelegramChatID == "" {
		log.Info("Telegram not configured, notifications go to the log")
		return notify.Log{Logger: log.Named("notify")}
	}

	tg, err := notify.NewTelegram(notify.TelegramConfig{
		BotToken:    secrets.BotToken,
		ChatID:      secrets.TelegramChatID,
		DedupWindow: time.Minute,
	}, log.Named("telegram"))
	if err != nil {
		log.Warn("Failed to create telegram notifier", zap.Error(err))
		return notify.Log{Logger: log.Named("notify")}
	}
	tg.Start(ctx)
	return tg
}

func newPriceOracle(cfg *config.Config, secrets *config.Secrets) gas.PriceOracle {
	e := cfg.Engine
	if e.PriceSource == config.PriceSourceCoinGecko {
		return oracle.NewCoinGecko("", secrets.CoinGeckoAPIKey, false, e.NativeAssetID, e.OracleRatePerSecond)
	}
	return oracle.NewEtherscan(secrets.EtherscanURL, secrets.EtherscanAPIKey, e.OracleRatePerSecond)
}
