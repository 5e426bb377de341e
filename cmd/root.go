package cmd

import (
	"context"

	"github.com/michaelpento.lv/dexarb/utils"
	"github.com/spf13/cobra"
)

var (
	network   string
	configDir string
	debug     bool
)

var rootCmd = &cobra.Command{
	Use:   "dexarb",
	Short: "A dual-dex arbitrage bot",
	Long: `A CLI bot that simulates round trips through two dex routers on an
arbitrage contract and trades the contract's balance when the return
covers the profit target and gas.`,
	SilenceUsage: true,
}

func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&network, "network", "aurora", "deployment target (aurora, fantom)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "config", "directory holding <network>.json or .yaml")
}

func initConfig() {
	utils.InitLogger(debug)
}
