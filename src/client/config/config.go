package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/maxogod/distro-lottery/src/common/models"
	"github.com/maxogod/distro-lottery/src/common/protocol"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Batch struct {
	MaxAmount int
	MaxBytes  int
}

type Results struct {
	RetryInterval time.Duration
	MaxRetries    int
}

type Config struct {
	ServerAddress     string
	ConnectionRetries int
	AgencyID          models.AgencyID
	Batch             Batch
	Results           Results
	DataPath          string
	LogLevel          string
}

func (c *Config) String() string {
	return fmt.Sprintf("ServerAddress: %s, AgencyID: %d, DataPath: %s, MaxAmount: %d, MaxBytes: %d",
		c.ServerAddress, c.AgencyID, c.DataPath, c.Batch.MaxAmount, c.Batch.MaxBytes)
}

const CONFIG_FILE_PATH = "./config.yaml"

// InitConfig loads configFilePath (CONFIG_FILE_PATH when empty) and lets
// environment variables such as AGENCY_ID or SERVER_ADDRESS override it.
func InitConfig(configFilePath string) (*Config, error) {
	v := viper.New()

	_ = godotenv.Load(".env")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.address", "localhost:12345")
	v.SetDefault("server.connection_retries", 3)
	v.SetDefault("batch.max_amount", 10)
	v.SetDefault("batch.max_bytes", 8000)
	v.SetDefault("results.retry_interval", "1s")
	v.SetDefault("results.max_retries", 30)
	v.SetDefault("log.level", "info")

	configFile := CONFIG_FILE_PATH
	if configFilePath != "" {
		configFile = configFilePath
	}
	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil && configFilePath != "" {
		return nil, errors.Wrapf(err, "failed to read config file %s", configFile)
	}

	agency := v.GetInt("agency.id")
	if agency < 1 || agency > 255 {
		return nil, errors.Errorf("agency.id must be between 1 and 255, got %d", agency)
	}

	config := &Config{
		ServerAddress:     v.GetString("server.address"),
		ConnectionRetries: v.GetInt("server.connection_retries"),
		AgencyID:          models.AgencyID(agency),
		Batch: Batch{
			MaxAmount: v.GetInt("batch.max_amount"),
			MaxBytes:  v.GetInt("batch.max_bytes"),
		},
		Results: Results{
			RetryInterval: v.GetDuration("results.retry_interval"),
			MaxRetries:    v.GetInt("results.max_retries"),
		},
		DataPath: v.GetString("data.path"),
		LogLevel: v.GetString("log.level"),
	}
	if config.DataPath == "" {
		config.DataPath = fmt.Sprintf("./data/agency-%d.csv", agency)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.ServerAddress == "" {
		return errors.New("server.address must not be empty")
	}
	if c.Batch.MaxAmount < 1 || c.Batch.MaxAmount > protocol.MaxBatchSize {
		return errors.Errorf("batch.max_amount must be between 1 and %d, got %d", protocol.MaxBatchSize, c.Batch.MaxAmount)
	}
	if c.Batch.MaxBytes < 1 {
		return errors.Errorf("batch.max_bytes must be positive, got %d", c.Batch.MaxBytes)
	}
	if c.Results.MaxRetries < 0 {
		return errors.Errorf("results.max_retries must not be negative, got %d", c.Results.MaxRetries)
	}
	return nil
}
