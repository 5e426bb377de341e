package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v2"
)

// Supported deployment targets
const (
	NetworkAurora = "aurora"
	NetworkFantom = "fantom"
)

// Price sources for the native asset
const (
	PriceSourceEtherscan = "etherscan"
	PriceSourceCoinGecko = "coingecko"
)

// ErrUnknownNetwork is returned for a deployment target without defaults
var ErrUnknownNetwork = errors.New("unknown network")

// Config holds the route universe and thresholds of one deployment target.
// It is loaded once at startup and never mutated afterwards.
type Config struct {
	Network         string       `json:"-" yaml:"-"`
	ContractAddress string       `json:"arbContract" yaml:"arbContract"`
	MinBasisPoints  int          `json:"minBasisPointsPerTrade" yaml:"minBasisPointsPerTrade"`
	Routers         []Venue      `json:"routers" yaml:"routers"`
	BaseAssets      []Asset      `json:"baseAssets" yaml:"baseAssets"`
	Tokens          []Asset      `json:"tokens" yaml:"tokens"`
	Routes          [][]string   `json:"routes" yaml:"routes"`
	Engine          EngineConfig `json:"engine" yaml:"engine"`
}

// Venue is a dex router
type Venue struct {
	Dex     string `json:"dex" yaml:"dex"`
	Address string `json:"address" yaml:"address"`
}

// Asset is an ERC20 token known to the deployment
type Asset struct {
	Symbol  string `json:"symbol" yaml:"symbol"`
	Address string `json:"address" yaml:"address"`
}

// EngineConfig tunes the decision loop
type EngineConfig struct {
	WrappedNativeSymbol string   `json:"wrappedNativeSymbol" yaml:"wrappedNativeSymbol"`
	NativeAssetID       string   `json:"nativeAssetId" yaml:"nativeAssetId"` // coingecko coin id
	PriceSource         string   `json:"priceSource" yaml:"priceSource"`
	BackoffInterval     Duration `json:"backoffInterval" yaml:"backoffInterval"`
	ReportInterval      Duration `json:"reportInterval" yaml:"reportInterval"`
	RPCTimeout          Duration `json:"rpcTimeout" yaml:"rpcTimeout"`
	ConfirmTimeout      Duration `json:"confirmTimeout" yaml:"confirmTimeout"` // max wait for a submitted trade to be mined
	StallTimeout        Duration `json:"stallTimeout" yaml:"stallTimeout"`     // no completed tick for this long fails /healthz
	MaxNonceRetries     int      `json:"maxNonceRetries" yaml:"maxNonceRetries"`
	GasPriceBumpPct     float64  `json:"gasPriceBumpPct" yaml:"gasPriceBumpPct"`
	OracleRatePerSecond float64  `json:"oracleRatePerSecond" yaml:"oracleRatePerSecond"`
	MetricsAddr         string   `json:"metricsAddr" yaml:"metricsAddr"`
}

// Duration accepts "5s" style strings in JSON and YAML files
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	return d.set(v)
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var v interface{}
	if err := unmarshal(&v); err != nil {
		return err
	}
	return d.set(v)
}

func (d *Duration) set(v interface{}) error {
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value) * time.Millisecond
	case int:
		d.Duration = time.Duration(value) * time.Millisecond
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		d.Duration = parsed
	default:
		return fmt.Errorf("invalid duration %v", v)
	}
	return nil
}

// DefaultEngineConfig returns the engine settings of a network
func DefaultEngineConfig(network string) (EngineConfig, error) {
	cfg := EngineConfig{
		BackoffInterval:     Duration{5 * time.Second},
		ReportInterval:      Duration{5 * time.Minute},
		RPCTimeout:          Duration{15 * time.Second},
		ConfirmTimeout:      Duration{3 * time.Minute},
		StallTimeout:        Duration{10 * time.Minute},
		MaxNonceRetries:     3,
		OracleRatePerSecond: 0.5,
		MetricsAddr:         ":9102",
	}

	switch network {
	case NetworkAurora:
		cfg.WrappedNativeSymbol = "WETH"
		cfg.NativeAssetID = "ethereum"
		cfg.PriceSource = PriceSourceEtherscan
	case NetworkFantom:
		cfg.WrappedNativeSymbol = "WFTM"
		cfg.NativeAssetID = "fantom"
		cfg.PriceSource = PriceSourceCoinGecko
	default:
		return EngineConfig{}, fmt.Errorf("%w: %q", ErrUnknownNetwork, network)
	}

	return cfg, nil
}

// LoadConfig reads <dir>/<network>.json, .yaml or .yml, applies the
// network defaults and the contract address from the environment.
func LoadConfig(dir, network string) (*Config, error) {
	defaults, err := DefaultEngineConfig(network)
	if err != nil {
		return nil, err
	}

	path, err := findConfigFile(dir, network)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	switch filepath.Ext(path) {
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	cfg.Network = network
	cfg.applyDefaults(defaults)
	if contract := os.Getenv(EnvKey(network, EnvArbContract)); contract != "" {
		cfg.ContractAddress = contract
	}

	if err := cfg.ValidateConfig(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func findConfigFile(dir, network string) (string, error) {
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		path := filepath.Join(dir, network+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no matching config file for network '%s' in %s", network, dir)
}

func (c *Config) applyDefaults(d EngineConfig) {
	e := &c.Engine
	if e.WrappedNativeSymbol == "" {
		e.WrappedNativeSymbol = d.WrappedNativeSymbol
	}
	if e.NativeAssetID == "" {
		e.NativeAssetID = d.NativeAssetID
	}
	if e.PriceSource == "" {
		e.PriceSource = d.PriceSource
	}
	if e.BackoffInterval.Duration == 0 {
		e.BackoffInterval = d.BackoffInterval
	}
	if e.ReportInterval.Duration == 0 {
		e.ReportInterval = d.ReportInterval
	}
	if e.RPCTimeout.Duration == 0 {
		e.RPCTimeout = d.RPCTimeout
	}
	if e.ConfirmTimeout.Duration == 0 {
		e.ConfirmTimeout = d.ConfirmTimeout
	}
	if e.StallTimeout.Duration == 0 {
		e.StallTimeout = d.StallTimeout
	}
	if e.MaxNonceRetries == 0 {
		e.MaxNonceRetries = d.MaxNonceRetries
	}
	if e.OracleRatePerSecond == 0 {
		e.OracleRatePerSecond = d.OracleRatePerSecond
	}
	if e.MetricsAddr == "" {
		e.MetricsAddr = d.MetricsAddr
	}
}

// ValidateConfig checks addresses and route shapes and reports every problem at once
func (c *Config) ValidateConfig() error {
	var errs []string

	if !common.IsHexAddress(c.ContractAddress) {
		errs = append(errs, "arbContract must be a hex address")
	}
	if c.MinBasisPoints < 0 {
		errs = append(errs, "minBasisPointsPerTrade must not be negative")
	}
	if len(c.BaseAssets) == 0 {
		errs = append(errs, "baseAssets must not be empty")
	}

	for _, r := range c.Routers {
		if !common.IsHexAddress(r.Address) {
			errs = append(errs, fmt.Sprintf("router %s has invalid address %q", r.Dex, r.Address))
		}
	}
	for _, list := range [][]Asset{c.BaseAssets, c.Tokens} {
		for _, a := range list {
			if !common.IsHexAddress(a.Address) {
				errs = append(errs, fmt.Sprintf("asset %s has invalid address %q", a.Symbol, a.Address))
			}
		}
	}

	if len(c.Routes) == 0 {
		if len(c.Routers) == 0 || len(c.Tokens) == 0 {
			errs = append(errs, "routers and tokens are required when no routes are configured")
		}
	}
	for i, route := range c.Routes {
		if len(route) < 4 {
			errs = append(errs, fmt.Sprintf("route %d has %d elements, want 4", i, len(route)))
			continue
		}
		for _, addr := range route[:4] {
			if !common.IsHexAddress(addr) {
				errs = append(errs, fmt.Sprintf("route %d has invalid address %q", i, addr))
			}
		}
	}

	if err := c.Engine.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("engine config error: %v", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

func (e *EngineConfig) Validate() error {
	if e.WrappedNativeSymbol == "" {
		return fmt.Errorf("wrapped native symbol must be specified")
	}
	if e.PriceSource != PriceSourceEtherscan && e.PriceSource != PriceSourceCoinGecko {
		return fmt.Errorf("unsupported price source %q", e.PriceSource)
	}
	if e.PriceSource == PriceSourceCoinGecko && e.NativeAssetID == "" {
		return fmt.Errorf("native asset id is required for coingecko")
	}
	if e.BackoffInterval.Duration <= 0 {
		return fmt.Errorf("backoff interval must be positive")
	}
	if e.RPCTimeout.Duration <= 0 {
		return fmt.Errorf("rpc timeout must be positive")
	}
	if e.ConfirmTimeout.Duration <= 0 {
		return fmt.Errorf("confirm timeout must be positive")
	}
	if e.MaxNonceRetries <= 0 {
		return fmt.Errorf("max nonce retries must be positive")
	}
	if e.GasPriceBumpPct < 0 {
		return fmt.Errorf("gas price bump must not be negative")
	}
	return nil
}

// Contract returns the arb contract address
func (c *Config) Contract() common.Address {
	return common.HexToAddress(c.ContractAddress)
}

// SymbolOf returns the symbol of a base asset or token
func (c *Config) SymbolOf(addr common.Address) (string, bool) {
	for _, list := range [][]Asset{c.BaseAssets, c.Tokens} {
		for _, a := range list {
			if common.HexToAddress(a.Address) == addr {
				return a.Symbol, true
			}
		}
	}
	return "", false
}
