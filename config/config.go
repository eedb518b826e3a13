package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
	Bot      BotConfig      `mapstructure:"bot"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig describes the optional game-record archive. An empty
// Host disables archiving entirely.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

type GameConfig struct {
	MinNumber int `mapstructure:"min_number"`
	MaxNumber int `mapstructure:"max_number"`
}

type BotConfig struct {
	MinThinkDelay time.Duration `mapstructure:"min_think_delay"`
	MaxThinkDelay time.Duration `mapstructure:"max_think_delay"`
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.http_address", ":8080")
	viper.SetDefault("server.rpc_address", ":8081")
	viper.SetDefault("server.metrics_address", ":9090")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("game.min_number", 1)
	viper.SetDefault("game.max_number", 100)
	viper.SetDefault("bot.min_think_delay", time.Second)
	viper.SetDefault("bot.max_think_delay", 3*time.Second)

	viper.AutomaticEnv()

	if err = viper.ReadInConfig(); err != nil {
		// Defaults and environment variables are enough to run.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
	}

	config = &Config{}
	err = viper.Unmarshal(config)
	return
}
