package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spf13/viper"
)

const clientIDPrefix = "blynk_"

// Config is the file backed configuration. CLI flags override it.
type Config struct {
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

type MQTTConfig struct {
	Broker          string        `mapstructure:"broker"`
	ClientID        string        `mapstructure:"client_id"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	ReconnectPeriod time.Duration `mapstructure:"reconnect_period"`
	KeepAlive       time.Duration `mapstructure:"keep_alive"`
}

type TelemetryConfig struct {
	TempTopic        string        `mapstructure:"temp_topic"`
	HumiTopic        string        `mapstructure:"humi_topic"`
	RssidTopic       string        `mapstructure:"rssid_topic"`
	CheckStatusTopic string        `mapstructure:"check_status_topic"`
	ControlTopic     string        `mapstructure:"control_topic"`
	TestTopic        string        `mapstructure:"test_topic"`
	ReportInterval   time.Duration `mapstructure:"report_interval"`
}

type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Writer string `mapstructure:"writer"`
}

// ChangeCallback is invoked with the reloaded configuration.
type ChangeCallback func(cfg *Config)

func setDefaults(v *viper.Viper) {
	v.SetDefault("mqtt.broker", "ws://localhost:9001")
	v.SetDefault("mqtt.client_id", "")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.connect_timeout", 30*time.Second)
	v.SetDefault("mqtt.reconnect_period", 3*time.Second)
	v.SetDefault("mqtt.keep_alive", 60*time.Second)

	v.SetDefault("telemetry.temp_topic", "blynk/temp")
	v.SetDefault("telemetry.humi_topic", "blynk/humi")
	v.SetDefault("telemetry.rssid_topic", "blynk/rssid")
	v.SetDefault("telemetry.check_status_topic", "blynk/checkStatus")
	v.SetDefault("telemetry.control_topic", "blynk/control")
	v.SetDefault("telemetry.test_topic", "test/topic")
	v.SetDefault("telemetry.report_interval", 30*time.Second)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.writer", "console")
}

// Load reads the YAML file at path on top of the defaults. An empty path
// yields the defaults alone.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt broker address cannot be empty")
	}
	if c.MQTT.ConnectTimeout <= 0 {
		return fmt.Errorf("mqtt connect_timeout must be positive")
	}
	if c.MQTT.ReconnectPeriod <= 0 {
		return fmt.Errorf("mqtt reconnect_period must be positive")
	}
	if c.Telemetry.ControlTopic == "" {
		return fmt.Errorf("telemetry control_topic cannot be empty")
	}
	if c.Telemetry.ReportInterval <= 0 {
		return fmt.Errorf("telemetry report_interval must be positive")
	}
	return nil
}

// ResolvedClientID returns the configured client id, or a random one with a
// fixed prefix so several instances never kick each other off the broker.
func (c *MQTTConfig) ResolvedClientID() string {
	if c.ClientID != "" {
		return c.ClientID
	}
	return clientIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// Watch reloads the file at path on every write and hands the result to
// callback once writes have been quiet for debounce, so the last write of a
// burst always wins.
func Watch(path string, debounce time.Duration, callback ChangeCallback, onError func(error)) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	var (
		mu     sync.Mutex
		timer  *time.Timer
		latest *Config
		err    error
	)

	deliver := func() {
		mu.Lock()
		cfg, decodeErr := latest, err
		mu.Unlock()

		if decodeErr != nil {
			onError(decodeErr)
			return
		}
		callback(cfg)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) {
			return
		}
		// viper has already re-read the file on this goroutine
		cfg, decodeErr := decode(v)

		mu.Lock()
		defer mu.Unlock()
		latest, err = cfg, decodeErr
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounce, deliver)
	})
	v.WatchConfig()
}
