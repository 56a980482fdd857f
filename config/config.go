package config

import (
	"log/slog"
	"net"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Strategy names accepted in the strategy.type setting.
const (
	StrategyRoundRobin         = "round-robin"
	StrategyLeastConnections   = "least-connections"
	StrategyRandom             = "random"
	StrategyIPHash             = "ip-hash"
	StrategyWeightedRoundRobin = "weighted-round-robin"
)

type BalancerConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Address string `mapstructure:"address"`
}

type StrategyConfig struct {
	Type string `mapstructure:"type"`
}

type HealthCheckConfig struct {
	Interval string  `mapstructure:"interval"`
	PassRate float64 `mapstructure:"pass_rate"`
}

type ProcessingConfig struct {
	FailureRate float64 `mapstructure:"failure_rate"`
	MinLatency  string  `mapstructure:"min_latency"`
	MaxLatency  string  `mapstructure:"max_latency"`
}

// ServerConfig describes one backend pool member. A zero weight means
// "unset"; the weighted strategy falls back to its default pattern when no
// server carries an explicit weight.
type ServerConfig struct {
	ID     string `mapstructure:"id"`
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	Weight int    `mapstructure:"weight"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Balancer    BalancerConfig    `mapstructure:"balancer"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Strategy    StrategyConfig    `mapstructure:"strategy"`
	HealthCheck HealthCheckConfig `mapstructure:"health_check"`
	Processing  ProcessingConfig  `mapstructure:"processing"`
	Servers     []ServerConfig    `mapstructure:"servers"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("balancer.name", "main-lb")
	v.SetDefault("balancer.environment", EnvDev)
	v.SetDefault("http.address", ":8080")
	v.SetDefault("strategy.type", StrategyRoundRobin)
	v.SetDefault("health_check.interval", "5s")
	v.SetDefault("health_check.pass_rate", 0.9)
	v.SetDefault("processing.failure_rate", 0.05)
	v.SetDefault("processing.min_latency", "50ms")
	v.SetDefault("processing.max_latency", "200ms")
	v.SetDefault("logging.level", LogLevelInfo)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Warn("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Balancer,
			validation.Required,
			validation.By(func(value interface{}) error {
				bc, ok := value.(BalancerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a BalancerConfig")
				}
				return validation.ValidateStruct(&bc,
					validation.Field(&bc.Name,
						validation.Required,
					),
					validation.Field(&bc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
				)
			}),
		),
		validation.Field(&c.HTTP,
			validation.Required,
			validation.By(func(value interface{}) error {
				hc, ok := value.(HTTPConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be an HTTPConfig")
				}
				return validation.ValidateStruct(&hc,
					validation.Field(&hc.Address,
						validation.Required,
						validation.By(validateHostPort),
					),
				)
			}),
		),
		validation.Field(&c.Strategy,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(StrategyConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a StrategyConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Type,
						validation.Required,
						validation.In(
							StrategyRoundRobin,
							StrategyLeastConnections,
							StrategyRandom,
							StrategyIPHash,
							StrategyWeightedRoundRobin,
						),
					),
				)
			}),
		),
		validation.Field(&c.HealthCheck,
			validation.Required,
			validation.By(func(value interface{}) error {
				hc, ok := value.(HealthCheckConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a HealthCheckConfig")
				}
				return validation.ValidateStruct(&hc,
					validation.Field(&hc.Interval,
						validation.Required,
						validation.By(validateDuration),
					),
					validation.Field(&hc.PassRate,
						validation.Min(0.0),
						validation.Max(1.0),
					),
				)
			}),
		),
		validation.Field(&c.Processing,
			validation.Required,
			validation.By(validateProcessing),
		),
		validation.Field(&c.Servers,
			validation.Required,
			validation.Length(1, 0),
			validation.By(validateUniqueServerIDs),
			validation.Each(validation.By(validateServerConfig)),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
	)
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if _, err := time.ParseDuration(durationStr); err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}

	return nil
}

func validateProcessing(value interface{}) error {
	pc, ok := value.(ProcessingConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a ProcessingConfig")
	}

	err := validation.ValidateStruct(&pc,
		validation.Field(&pc.FailureRate,
			validation.Min(0.0),
			validation.Max(1.0),
		),
		validation.Field(&pc.MinLatency,
			validation.Required,
			validation.By(validateDuration),
		),
		validation.Field(&pc.MaxLatency,
			validation.Required,
			validation.By(validateDuration),
		),
	)
	if err != nil {
		return err
	}

	minLatency, _ := time.ParseDuration(pc.MinLatency)
	maxLatency, _ := time.ParseDuration(pc.MaxLatency)
	if maxLatency < minLatency {
		return validation.NewError("validation_latency_range", "max_latency must not be below min_latency")
	}

	return nil
}

func validateServerConfig(value interface{}) error {
	srv, ok := value.(ServerConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a ServerConfig")
	}

	if srv.ID == "" {
		return validation.NewError("validation_empty_id", "server id cannot be empty")
	}

	if srv.Host == "" {
		return validation.NewError("validation_empty_host", "server host cannot be empty")
	}
	if err := is.Host.Validate(srv.Host); err != nil {
		return validation.NewError("validation_invalid_host", "invalid server host")
	}

	if srv.Port < 1 || srv.Port > 65535 {
		return validation.NewError("validation_invalid_port", "port must be between 1 and 65535")
	}

	if srv.Weight < 0 {
		return validation.NewError("validation_invalid_weight", "weight cannot be negative")
	}

	return nil
}

func validateUniqueServerIDs(value interface{}) error {
	servers, ok := value.([]ServerConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a server list")
	}

	seen := make(map[string]bool, len(servers))
	for _, srv := range servers {
		if seen[srv.ID] {
			return validation.NewError("validation_duplicate_id", "server ids must be unique")
		}
		seen[srv.ID] = true
	}

	return nil
}
