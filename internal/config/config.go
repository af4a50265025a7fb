// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/fuselabs/fuse-launchpad/internal/curve"
)

type Config struct {
	RPCList     []string `mapstructure:"rpc_list"`
	PostgresURL string   `mapstructure:"postgres_url"`

	FeeBasisPoints   uint64 `mapstructure:"fee_basis_points"`
	ProtocolFeeShare uint64 `mapstructure:"protocol_fee_share"`
	ReferralFeeShare uint64 `mapstructure:"referral_fee_share"`

	VirtualSolReserves   uint64 `mapstructure:"virtual_sol_reserves"`
	VirtualTokenReserves uint64 `mapstructure:"virtual_token_reserves"`
	RealTokenReserves    uint64 `mapstructure:"real_token_reserves"`
	TokenTotalSupply     uint64 `mapstructure:"token_total_supply"`
	TokenDecimals        uint8  `mapstructure:"token_decimals"`

	GraduationSolThreshold uint64 `mapstructure:"graduation_sol_threshold"`
	CreationFeeLamports    uint64 `mapstructure:"creation_fee_lamports"`

	SniperWindowSeconds  int    `mapstructure:"sniper_window_seconds"`
	SniperMaxBuyLamports uint64 `mapstructure:"sniper_max_buy_lamports"`

	Treasury        string `mapstructure:"treasury"`
	FeeAuthority    string `mapstructure:"fee_authority"`
	MeteoraConfig   string `mapstructure:"meteora_config"`
	MigrationWallet string `mapstructure:"migration_wallet"` // base58 private key

	MigrationRetries     int `mapstructure:"migration_retries"`
	MigrationSweepMins   int `mapstructure:"migration_sweep_minutes"`
	MigrationStepTimeout int `mapstructure:"migration_step_timeout_seconds"`

	DebugLogging bool   `mapstructure:"debug_logging"`
	LogFile      string `mapstructure:"log_file"`
	Workers      int    `mapstructure:"workers"`
}

const (
	DefaultWorkers            = 5
	DefaultMigrationRetries   = 5
	DefaultMigrationSweepMins = 5
	DefaultStepTimeoutSecs    = 90
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"fee_basis_points":               curve.DefaultFeeBasisPoints,
		"protocol_fee_share":             curve.DefaultProtocolFeeShare,
		"referral_fee_share":             curve.DefaultReferralFeeShare,
		"virtual_sol_reserves":           curve.DefaultVirtualSolReserves,
		"virtual_token_reserves":         curve.DefaultVirtualTokenReserves,
		"real_token_reserves":            curve.DefaultRealTokenReserves,
		"token_total_supply":             curve.DefaultTotalSupply,
		"token_decimals":                 curve.DefaultTokenDecimals,
		"graduation_sol_threshold":       curve.DefaultGraduationSolThreshold,
		"creation_fee_lamports":          curve.DefaultCreationFeeLamports,
		"sniper_window_seconds":          int(curve.DefaultSniperWindow / time.Second),
		"sniper_max_buy_lamports":        curve.DefaultSniperMaxBuyLamports,
		"workers":                        DefaultWorkers,
		"migration_retries":              DefaultMigrationRetries,
		"migration_sweep_minutes":        DefaultMigrationSweepMins,
		"migration_step_timeout_seconds": DefaultStepTimeoutSecs,
		"log_file":                       "logs/launchpad.log",
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

// CurveParams converts the loaded configuration into curve parameters.
func (c *Config) CurveParams() curve.Params {
	p := curve.Params{
		FeeBasisPoints:         c.FeeBasisPoints,
		ProtocolFeeShare:       c.ProtocolFeeShare,
		CreatorFeeShare:        100 - c.ProtocolFeeShare,
		ReferralFeeShare:       c.ReferralFeeShare,
		VirtualSolReserves:     c.VirtualSolReserves,
		VirtualTokenReserves:   c.VirtualTokenReserves,
		RealTokenReserves:      c.RealTokenReserves,
		TotalSupply:            c.TokenTotalSupply,
		TokenDecimals:          c.TokenDecimals,
		GraduationSolThreshold: c.GraduationSolThreshold,
		CreationFeeLamports:    c.CreationFeeLamports,
		SniperWindow:           time.Duration(c.SniperWindowSeconds) * time.Second,
		SniperMaxBuyLamports:   c.SniperMaxBuyLamports,
	}
	return p
}

func validateConfig(cfg *Config) error {
	if len(cfg.RPCList) == 0 {
		return errors.New("rpc_list is empty")
	}
	for _, rpcURL := range cfg.RPCList {
		if err := validateURLWithCache(rpcURL, "http"); err != nil {
			return errors.New("invalid RPC URL protocol")
		}
	}
	if cfg.PostgresURL == "" {
		return errors.New("missing postgres_url in configuration")
	}
	if cfg.Treasury == "" {
		return errors.New("missing treasury in configuration")
	}
	if err := validateNumericParams(cfg); err != nil {
		return err
	}
	p := cfg.CurveParams()
	return p.Validate()
}

func validateNumericParams(cfg *Config) error {
	if cfg.Workers < 0 {
		return errors.New("invalid workers count")
	}
	if cfg.MigrationRetries < 0 {
		return errors.New("invalid migration_retries count")
	}
	if cfg.MigrationSweepMins <= 0 {
		return errors.New("invalid migration_sweep_minutes")
	}
	if cfg.MigrationStepTimeout <= 0 {
		return errors.New("invalid migration_step_timeout_seconds")
	}
	if cfg.SniperWindowSeconds < 0 {
		return errors.New("invalid sniper_window_seconds")
	}
	if cfg.ProtocolFeeShare > 100 {
		return errors.New("protocol_fee_share must not exceed 100")
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("LAUNCHPAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envPostgres := v.GetString("POSTGRES_URL")
	if envPostgres != "" {
		cfg.PostgresURL = envPostgres
	}

	envWallet := v.GetString("MIGRATION_WALLET")
	if envWallet != "" {
		cfg.MigrationWallet = envWallet
	}

	envRPCList := v.GetString("RPC_LIST")
	if envRPCList != "" {
		rpcs := strings.Split(envRPCList, ",")
		var cleanRPCs []string
		for _, rpc := range rpcs {
			clean := strings.TrimSpace(rpc)
			if clean != "" {
				cleanRPCs = append(cleanRPCs, clean)
			}
		}
		if len(cleanRPCs) > 0 {
			cfg.RPCList = cleanRPCs
		}
	}
	return nil
}
