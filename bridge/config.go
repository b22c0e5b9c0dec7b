package bridge

import (
	"fmt"
	"strings"
	"time"

	z "github.com/Oudwins/zog"
	"github.com/hibiken/asynq"
	"github.com/spf13/viper"

	"cosmossdk.io/log"

	"github.com/sonr-io/vaultbridge/app"
	"github.com/sonr-io/vaultbridge/app/store"
	"github.com/sonr-io/vaultbridge/bridge/tasks"
	"github.com/sonr-io/vaultbridge/crypto/pda"
	"github.com/sonr-io/vaultbridge/crypto/secure"
	"github.com/sonr-io/vaultbridge/crypto/sigverify"
	"github.com/sonr-io/vaultbridge/oracle"
)

const (
	DefaultRedisAddr    = "127.0.0.1:6379"
	DefaultJWTSecret    = "vaultbridge-local-jwt-secret"
	DefaultSignerSecret = "vaultbridge-local-signer-secret"
	DefaultHTTPPort     = 8090
	DefaultDecimals     = 6
	ShutdownTimeout     = 30 * time.Second

	// EnvPrefix prefixes every environment override, e.g. BRIDGE_HTTP_PORT.
	EnvPrefix = "BRIDGE"
)

// Config is the bridge service configuration.
type Config struct {
	Port      int    `mapstructure:"http_port"`
	RedisAddr string `mapstructure:"redis_addr"`
	JWTSecret string `mapstructure:"jwt_secret"`

	DataDir      string `mapstructure:"data_dir"`
	StoreBackend string `mapstructure:"store_backend"`

	KeyProfile             string        `mapstructure:"key_profile"`
	SignerSecret           string        `mapstructure:"signer_secret"`
	AuthorizationPublicKey string        `mapstructure:"authorization_public_key"`
	SignFee                uint64        `mapstructure:"sign_fee"`
	CycleBudget            uint64        `mapstructure:"cycle_budget"`
	OracleTimeout          time.Duration `mapstructure:"oracle_timeout"`

	BridgeIdentity string `mapstructure:"bridge_identity"`
	PoolAsset      string `mapstructure:"pool_asset"`
	VaultProgramID string `mapstructure:"vault_program_id"`
	TokenFee       uint64 `mapstructure:"token_fee"`
	Decimals       int    `mapstructure:"decimals"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Concurrency     int           `mapstructure:"queue_concurrency"`
}

// ConfigSchema validates a loaded Config.
var ConfigSchema = z.Struct(z.Shape{
	"port": z.Int().Required(z.Message("http_port is required")).
		GTE(1, z.Message("http_port must be between 1 and 65535")).
		LTE(65535, z.Message("http_port must be between 1 and 65535")),
	"redisAddr": z.String().Required(z.Message("redis_addr is required")),
	"storeBackend": z.String().OneOf(
		[]string{store.BackendMemory, store.BackendLevelDB},
		z.Message("store_backend must be memdb or goleveldb"),
	),
	"keyProfile": z.String().OneOf(oracle.Profiles(), z.Message("key_profile must be local, test or production")),
	"authorizationPublicKey": z.String().Optional().
		TestFunc(isPublicKeyHex, z.Message("authorization_public_key must be 32 hex encoded bytes")),
	"vaultProgramID": z.String().Required().
		TestFunc(isAddress, z.Message("vault_program_id must be a base58 32 byte address")),
	"bridgeIdentity": z.String().Required(z.Message("bridge_identity is required")),
	"decimals": z.Int().
		GTE(0, z.Message("decimals must be between 0 and 18")).
		LTE(18, z.Message("decimals must be between 0 and 18")),
	"concurrency": z.Int().Required(z.Message("queue_concurrency is required")).GTE(1, z.Message("queue_concurrency must be positive")),
})

// NewViper returns a viper instance carrying the defaults, reading BRIDGE_*
// environment variables and, when configFile is set, that file.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault("http_port", DefaultHTTPPort)
	v.SetDefault("redis_addr", DefaultRedisAddr)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("data_dir", "data")
	v.SetDefault("store_backend", store.BackendLevelDB)
	v.SetDefault("key_profile", oracle.ProfileLocal)
	v.SetDefault("signer_secret", "")
	v.SetDefault("authorization_public_key", "")
	v.SetDefault("sign_fee", oracle.DefaultSignFee)
	v.SetDefault("cycle_budget", 0)
	v.SetDefault("oracle_timeout", oracle.DefaultRequestTimeout)
	v.SetDefault("bridge_identity", app.DefaultBridgeIdentity)
	v.SetDefault("pool_asset", app.DefaultPoolAsset)
	v.SetDefault("vault_program_id", app.DefaultVaultProgramID)
	v.SetDefault("token_fee", 0)
	v.SetDefault("decimals", DefaultDecimals)
	v.SetDefault("shutdown_timeout", ShutdownTimeout)
	v.SetDefault("queue_concurrency", 10)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}
	return v, nil
}

// LoadConfig decodes and validates the configuration held by v.
func LoadConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if errs := ConfigSchema.Validate(&cfg); errs != nil {
		return nil, fmt.Errorf("invalid config: %v", errs)
	}
	if cfg.KeyProfile != oracle.ProfileLocal {
		if cfg.SignerSecret == "" {
			return nil, fmt.Errorf("invalid config: signer_secret is required for profile %s", cfg.KeyProfile)
		}
		if cfg.AuthorizationPublicKey == "" {
			return nil, fmt.Errorf("invalid config: authorization_public_key is required for profile %s", cfg.KeyProfile)
		}
		if cfg.JWTSecret == "" {
			return nil, fmt.Errorf("invalid config: jwt_secret is required for profile %s", cfg.KeyProfile)
		}
		policy := secure.DefaultSecretPolicy()
		if err := policy.Check([]byte(cfg.SignerSecret)); err != nil {
			return nil, fmt.Errorf("invalid config: signer_secret: %w", err)
		}
		if err := policy.Check([]byte(cfg.JWTSecret)); err != nil {
			return nil, fmt.Errorf("invalid config: jwt_secret: %w", err)
		}
	}
	return &cfg, nil
}

// ApplyLocalDefaults fills the secrets the local profile may omit and warns
// about each one.
func (c *Config) ApplyLocalDefaults(logger log.Logger) {
	if c.JWTSecret == "" {
		c.JWTSecret = DefaultJWTSecret
		logger.Warn("using default JWT secret, set BRIDGE_JWT_SECRET for deployments")
	}
	if c.SignerSecret == "" {
		c.SignerSecret = DefaultSignerSecret
		logger.Warn("using default signer secret, set BRIDGE_SIGNER_SECRET for deployments")
	}
}

// AppOptions returns the options the keepers are built with.
func (c *Config) AppOptions() app.Options {
	return app.Options{
		DataDir:                c.DataDir,
		StoreBackend:           c.StoreBackend,
		KeyProfile:             c.KeyProfile,
		SignerSecret:           []byte(c.SignerSecret),
		SignFee:                c.SignFee,
		CycleBudget:            c.CycleBudget,
		OracleTimeout:          c.OracleTimeout,
		AuthorizationPublicKey: c.AuthorizationPublicKey,
		BridgeIdentity:         c.BridgeIdentity,
		PoolAsset:              c.PoolAsset,
		VaultProgramID:         c.VaultProgramID,
		TokenFee:               c.TokenFee,
	}
}

// AsynqConfig returns the queue server configuration.
func (c *Config) AsynqConfig() asynq.Config {
	return asynq.Config{
		Concurrency: c.Concurrency,
		Queues: map[string]int{
			tasks.QueueCritical: 6,
			tasks.QueueDefault:  3,
			tasks.QueueLow:      1,
		},
		ShutdownTimeout: c.ShutdownTimeout,
		RetryDelayFunc:  asynq.DefaultRetryDelayFunc,
		IsFailure: func(err error) bool {
			return err != nil
		},
	}
}

// HTTPAddr returns the listen address of the HTTP server.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func isPublicKeyHex(val *string, ctx z.Ctx) bool {
	if *val == "" {
		return true
	}
	_, err := sigverify.ParsePublicKey(*val)
	return err == nil
}

func isAddress(val *string, ctx z.Ctx) bool {
	_, err := pda.ParseAddress(*val)
	return err == nil
}
