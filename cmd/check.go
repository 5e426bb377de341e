package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/michaelpento.lv/dexarb/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and environment of a network",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnv(); err != nil {
			return err
		}
		cfg, err := config.LoadConfig(configDir, network)
		if err != nil {
			return err
		}
		return printCheck(cmd.OutOrStdout(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func printCheck(w io.Writer, cfg *config.Config) error {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	mode := "random"
	if len(cfg.Routes) > 0 {
		mode = fmt.Sprintf("curated (%d routes)", len(cfg.Routes))
	}

	fmt.Fprintf(w, "Network: %s\n", cfg.Network)
	fmt.Fprintf(w, "Route selection: %s\n", mode)
	fmt.Fprintf(w, "Resolved configuration:\n%s\n", out)
	fmt.Fprintln(w, "Environment:")
	for _, key := range envKeys(cfg.Network) {
		state := "missing"
		if os.Getenv(key) != "" {
			state = "set"
		}
		fmt.Fprintf(w, "  %s: %s\n", key, state)
	}
	return nil
}

func envKeys(network string) []string {
	return []string{
		config.EnvKey(network, config.EnvRPCURL),
		config.EnvKey(network, config.EnvPrivateKey),
		config.EnvKey(network, config.EnvArbContract),
		config.EnvEtherscanKey,
		config.EnvCoinGeckoKey,
		config.EnvBotToken,
		config.EnvTelegramID,
	}
}
