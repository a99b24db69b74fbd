// Ininicializing common application configuration
package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Loader   LoaderConfig   `mapstructure:"loader"`
	Detector DetectorConfig `mapstructure:"detector"`
	Composer ComposerConfig `mapstructure:"composer"`
}

type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	Timeout        time.Duration `mapstructure:"timeout"`
	Idle_timeout   time.Duration `mapstructure:"idle_timeout"`
	Mode           string        `mapstructure:"mode"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

type StorageConfig struct {
	BasePath string `mapstructure:"base_path"`
}

type KafkaConfig struct {
	Brokers     []string      `mapstructure:"brokers"`
	Topic       string        `mapstructure:"topic"`
	GroupID     string        `mapstructure:"group_id"`
	TaskTimeout time.Duration `mapstructure:"task_timeout"`
}

// RedisConfig is optional: an empty host disables the remote image cache.
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type LoaderConfig struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxBytes          int64         `mapstructure:"max_bytes"`
	MaxPixels         int64         `mapstructure:"max_pixels"`
	AllowPrivateHosts bool          `mapstructure:"allow_private_hosts"`
	UserAgent         string        `mapstructure:"user_agent"`
}

type DetectorConfig struct {
	AlphaThreshold int     `mapstructure:"alpha_threshold"`
	RatioTwoByOne  float64 `mapstructure:"ratio_two_by_one"`
	RatioDefault   float64 `mapstructure:"ratio_default"`
	MinBandHeight  int     `mapstructure:"min_band_height"`
	MergeGap       int     `mapstructure:"merge_gap"`
	MarginRatio    float64 `mapstructure:"margin_ratio"`
}

type ComposerConfig struct {
	JPEGQuality        int     `mapstructure:"jpeg_quality"`
	CornerRadiusRatio  float64 `mapstructure:"corner_radius_ratio"`
	UploadGapRatio     float64 `mapstructure:"upload_gap_ratio"`
	PhotoboothGapRatio float64 `mapstructure:"photobooth_gap_ratio"`
	LoadConcurrency    int     `mapstructure:"load_concurrency"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.request_timeout", 45*time.Second)
	v.SetDefault("server.max_upload_bytes", 20<<20)

	v.SetDefault("storage.base_path", "./storage")

	v.SetDefault("kafka.brokers", []string{"localhost:9094"})
	v.SetDefault("kafka.topic", "composites")
	v.SetDefault("kafka.group_id", "composite-processor")
	v.SetDefault("kafka.task_timeout", 2*time.Minute)

	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cache_ttl", time.Hour)

	v.SetDefault("loader.timeout", 15*time.Second)
	v.SetDefault("loader.max_bytes", 32<<20)
	v.SetDefault("loader.max_pixels", 50_000_000)
	v.SetDefault("loader.allow_private_hosts", false)
	v.SetDefault("loader.user_agent", "photoframe-loader/1.0")

	v.SetDefault("detector.alpha_threshold", 22)
	v.SetDefault("detector.ratio_two_by_one", 0.40)
	v.SetDefault("detector.ratio_default", 0.28)
	v.SetDefault("detector.min_band_height", 12)
	v.SetDefault("detector.merge_gap", 20)
	v.SetDefault("detector.margin_ratio", 0.02)

	v.SetDefault("composer.jpeg_quality", 95)
	v.SetDefault("composer.corner_radius_ratio", 0.06)
	v.SetDefault("composer.upload_gap_ratio", 0.05)
	v.SetDefault("composer.photobooth_gap_ratio", 0.03)
	v.SetDefault("composer.load_concurrency", 4)
}

// LoadConfig reads ./config/config.yaml. Every key can be overridden from the environment,
// e.g. KAFKA_TOPIC or COMPOSER_JPEG_QUALITY. A missing file leaves the defaults in place.
func LoadConfig() (*viper.Viper, error) {

	viperInstance := viper.New()
	setDefaults(viperInstance)

	viperInstance.AddConfigPath("./config")
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperInstance.AutomaticEnv()

	err := viperInstance.ReadInConfig()

	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		log.Printf("config file not found, using defaults and environment")
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		log.Printf("unable to decode config into struct, %v", err)
		return nil, err
	}
	return &c, nil
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
