package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Per-network environment variable suffixes, prefixed with the upper-cased
// network name: AURORA_MAINNET_URL, FANTOM_MAINNET_PRIVATE_KEY, ...
const (
	EnvRPCURL      = "MAINNET_URL"
	EnvPrivateKey  = "MAINNET_PRIVATE_KEY"
	EnvArbContract = "MAINNET_ARB_CONTRACT"
)

// Shared environment variables
const (
	EnvEtherscanKey  = "ETHERSCAN_API_KEY"
	EnvCoinGeckoKey  = "COINGECKO_API_KEY"
	EnvBotToken      = "BOT_TOKEN"
	EnvTelegramID    = "DEFAULT_TELEGRAM_ID"
	EnvEtherscanBase = "ETHERSCAN_API_URL"
)

// Secrets are the credentials and endpoints that never live in config files
type Secrets struct {
	RPCURL          string
	PrivateKey      string
	EtherscanAPIKey string
	EtherscanURL    string
	CoinGeckoAPIKey string
	BotToken        string
	TelegramChatID  string
}

// LoadEnv loads environment variables from .env file; a missing file is not an error
func LoadEnv() error {
	if err := godotenv.Load(); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// GetEnvWithDefault gets an environment variable with a default value
func GetEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetRequiredEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("required environment variable %s not set", key)
	}
	return value, nil
}

// LoadSecrets reads the signer and endpoint settings of a network
func LoadSecrets(network string) (*Secrets, error) {
	rpcURL, err := GetRequiredEnv(EnvKey(network, EnvRPCURL))
	if err != nil {
		return nil, err
	}
	privateKey, err := GetRequiredEnv(EnvKey(network, EnvPrivateKey))
	if err != nil {
		return nil, fmt.Errorf("private key not found: %w", err)
	}

	return &Secrets{
		RPCURL:          rpcURL,
		PrivateKey:      strings.TrimPrefix(privateKey, "0x"),
		EtherscanAPIKey: os.Getenv(EnvEtherscanKey),
		EtherscanURL:    GetEnvWithDefault(EnvEtherscanBase, "https://api.etherscan.io/api"),
		CoinGeckoAPIKey: os.Getenv(EnvCoinGeckoKey),
		BotToken:        os.Getenv(EnvBotToken),
		TelegramChatID:  os.Getenv(EnvTelegramID),
	}, nil
}

// EnvKey returns the per-network name of an environment variable
func EnvKey(network, suffix string) string {
	return strings.ToUpper(network) + "_" + suffix
}
