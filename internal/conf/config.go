// Package conf loads application settings from file, environment, and
// defaults via Viper.
package conf

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Database backend identifiers.
const (
	DatabaseSQLite = "sqlite"
	DatabaseMySQL  = "mysql"
)

// HTTP holds HTTP server settings.
type HTTP struct {
	Addr string `mapstructure:"addr"`
}

// Database selects and configures the storage backend.
type Database struct {
	Type string `mapstructure:"type"`
	Path string `mapstructure:"path"` // sqlite file path
	DSN  string `mapstructure:"dsn"`  // mysql DSN
}

// MQTT configures the external-feed subscriber.
type MQTT struct {
	Enabled      bool   `mapstructure:"enabled"`
	Broker       string `mapstructure:"broker"`
	ClientID     string `mapstructure:"client_id"`
	TopicDemand  string `mapstructure:"topic_demand"`
	TopicContext string `mapstructure:"topic_context"`
}

// Engine holds forecaster run settings.
type Engine struct {
	ConfigName      string   `mapstructure:"config_name"`
	DefaultRegion   string   `mapstructure:"default_region"`
	RetrainInterval Duration `mapstructure:"retrain_interval"`
}

// Log configures the application logger.
type Log struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Settings is the root application configuration.
type Settings struct {
	HTTP     HTTP     `mapstructure:"http"`
	Database Database `mapstructure:"database"`
	MQTT     MQTT     `mapstructure:"mqtt"`
	Engine   Engine   `mapstructure:"engine"`
	Log      Log      `mapstructure:"log"`
}

// Load reads settings from the given config file (optional), the MEDVAULT_*
// environment, and built-in defaults, in ascending precedence of
// defaults < file < environment.
func Load(configFile string) (*Settings, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("medvault")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/medvault")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// A missing config file is fine when none was explicitly requested.
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings, viper.DecodeHook(DurationDecodeHook())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &settings, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")

	v.SetDefault("database.type", DatabaseSQLite)
	v.SetDefault("database.path", "medvault.db")

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "medvault-ingest")
	v.SetDefault("mqtt.topic_demand", "medvault/events/demand")
	v.SetDefault("mqtt.topic_context", "medvault/signals/context")

	v.SetDefault("engine.config_name", "default")
	v.SetDefault("engine.default_region", "Lagos")
	v.SetDefault("engine.retrain_interval", (24 * time.Hour).String())

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
}
