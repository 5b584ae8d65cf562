package config

import (
	"fmt"
	"time"
)

type Configs struct {
	Env string `env:"ENV" envDefault:"local"`

	ApiServer ServerConfigs   `envPrefix:"API_"`
	Database  DatabaseConfigs `envPrefix:"MYSQL_"`
	Redis     RedisConfigs    `envPrefix:"REDIS_"`
	Auth      AuthConfigs     `envPrefix:"AUTH_"`
	Telegram  TelegramConfigs `envPrefix:"TELEGRAM_"`
	VK        VKConfigs       `envPrefix:"VK_"`

	// Reward is loaded from the policy file, not from environment.
	Reward           RewardConfigs
	RewardConfigPath string `env:"REWARD_CONFIG_PATH" envDefault:"./reward.toml"`
}

type ServerConfigs struct {
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port string `env:"PORT" envDefault:"8080"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	// WebhookSecret authenticates the gateway pushing platform events.
	WebhookSecret string `env:"WEBHOOK_SECRET"`
}

func (s ServerConfigs) Address() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

type DatabaseConfigs struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"3306"`
	Database string `env:"DATABASE" envDefault:"taskex"`
	User     string `env:"USER" envDefault:"root"`
	Password string `env:"PASSWORD"`
}

func (d DatabaseConfigs) ConnectionString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type RedisConfigs struct {
	Addr string `env:"ADDR" envDefault:"localhost:6379"`
}

type AuthConfigs struct {
	TokenSecret string       `env:"TOKEN_SECRET"`
	AccessToken TokenConfigs `envPrefix:"ACCESS_TOKEN_"`
}

type TokenConfigs struct {
	Name       string        `env:"NAME" envDefault:"access_token"`
	Expiration time.Duration `env:"EXPIRATION" envDefault:"24h"`
}

type TelegramConfigs struct {
	BotToken string `env:"BOT_TOKEN"`

	// InitDataExpiration bounds the age of a mini-app init data payload
	// accepted at login.
	InitDataExpiration time.Duration `env:"INIT_DATA_EXPIRATION" envDefault:"24h"`
}

type VKConfigs struct {
	ServiceToken string `env:"SERVICE_TOKEN"`
	APIVersion   string `env:"API_VERSION" envDefault:"5.199"`
}
