package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Lottery struct {
	Agencies     int
	WinnerNumber int
	PollResults  bool
}

type Config struct {
	Port              int
	ListenBacklog     int
	IdleTimeout       time.Duration
	Lottery           Lottery
	StoragePath       string
	HealthCheckPort   int
	MiddlewareAddress string
	LogLevel          string
}

func (c Config) String() string {
	return fmt.Sprintf(
		"[CONFIG: Port: %d | ListenBacklog: %d | IdleTimeout: %s | Agencies: %d | WinnerNumber: %d | PollResults: %t | StoragePath: %s | HealthCheckPort: %d | Middleware: %t | LogLevel: %s]",
		c.Port,
		c.ListenBacklog,
		c.IdleTimeout,
		c.Lottery.Agencies,
		c.Lottery.WinnerNumber,
		c.Lottery.PollResults,
		c.StoragePath,
		c.HealthCheckPort,
		c.MiddlewareAddress != "",
		c.LogLevel,
	)
}

const CONFIG_FILE_PATH = "./config.yaml"

const (
	MinIdleTimeout = 1 * time.Second
	MaxIdleTimeout = 10 * time.Minute
	MaxAgencies    = 255
)

// InitConfig reads configFilePath (CONFIG_FILE_PATH when empty). A missing
// file is not an error: defaults, .env and environment variables such as
// SERVER_PORT or LOTTERY_AGENCIES are enough to run.
func InitConfig(configFilePath string) (*Config, error) {
	v := viper.New()

	// this function will do nothing if the file is missing,
	// so only environment variables will be used.
	_ = godotenv.Load(".env")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	configFile := CONFIG_FILE_PATH
	if configFilePath != "" {
		configFile = configFilePath
	}

	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		if configFilePath != "" {
			return nil, errors.Wrapf(err, "failed to read config file %s", configFile)
		}
	}

	config := &Config{
		Port:          v.GetInt("server.port"),
		ListenBacklog: v.GetInt("server.listen_backlog"),
		IdleTimeout:   v.GetDuration("server.idle_timeout"),
		Lottery: Lottery{
			Agencies:     v.GetInt("lottery.agencies"),
			WinnerNumber: v.GetInt("lottery.winner_number"),
			PollResults:  v.GetBool("lottery.poll_results"),
		},
		StoragePath:       v.GetString("storage.path"),
		HealthCheckPort:   v.GetInt("healthcheck.port"),
		MiddlewareAddress: v.GetString("middleware.url"),
		LogLevel:          v.GetString("log.level"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return errors.Errorf("invalid server.port %d", c.Port)
	}
	if c.ListenBacklog < 1 {
		return errors.Errorf("server.listen_backlog must be positive, got %d", c.ListenBacklog)
	}
	if c.IdleTimeout < MinIdleTimeout || c.IdleTimeout > MaxIdleTimeout {
		return errors.Errorf("server.idle_timeout must be between %s and %s, got %s", MinIdleTimeout, MaxIdleTimeout, c.IdleTimeout)
	}
	if c.Lottery.Agencies < 1 || c.Lottery.Agencies > MaxAgencies {
		return errors.Errorf("lottery.agencies must be between 1 and %d, got %d", MaxAgencies, c.Lottery.Agencies)
	}
	// every session parked on the results holds a served slot until the
	// lottery runs, so fewer slots than agencies can never open the gate
	if !c.Lottery.PollResults && c.ListenBacklog < c.Lottery.Agencies {
		return errors.Errorf("server.listen_backlog (%d) must be at least lottery.agencies (%d) unless lottery.poll_results is set",
			c.ListenBacklog, c.Lottery.Agencies)
	}
	if c.Lottery.WinnerNumber < 0 {
		return errors.Errorf("lottery.winner_number must not be negative, got %d", c.Lottery.WinnerNumber)
	}
	if c.StoragePath == "" {
		return errors.New("storage.path must not be empty")
	}
	if c.HealthCheckPort < 0 || c.HealthCheckPort > 65535 {
		return errors.Errorf("invalid healthcheck.port %d", c.HealthCheckPort)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 12345)
	v.SetDefault("server.listen_backlog", 5)
	v.SetDefault("server.idle_timeout", "30s")
	v.SetDefault("lottery.agencies", 5)
	v.SetDefault("lottery.winner_number", 7574)
	v.SetDefault("lottery.poll_results", false)
	v.SetDefault("storage.path", "./bets.storage")
	v.SetDefault("healthcheck.port", 0)
	v.SetDefault("middleware.url", "")
	v.SetDefault("log.level", "info")
}
