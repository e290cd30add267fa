package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Paystack PaystackConfig
	Wallet   WalletConfig
	QRToken  QRTokenConfig
	Redis    RedisConfig
	Admin    AdminConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

type PaystackConfig struct {
	BaseURL       string
	SecretKey     string
	WebhookSecret string
	VerifyTimeout time.Duration
}

type WalletConfig struct {
	// CoinRateNaira is the only coin->naira rate in the system, e.g. "0.50"
	// means 1 coin converts to 50 kobo on withdrawal.
	CoinRateNaira    string
	MinWithdrawCoins int64
}

type QRTokenConfig struct {
	Secret string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	StatsTTL time.Duration
}

type AdminConfig struct {
	Email    string
	Password string
}

// Load reads configuration from the environment (STAGEPASS_* variables) with
// development defaults. Call godotenv.Load before this in main if a .env
// file is used.
func Load() *Config {
	v := viper.New()
	v.SetEnvPrefix("STAGEPASS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)

	v.SetDefault("database.dsn", "stagepass:stagepass@tcp(localhost:3306)/stagepass?charset=utf8mb4&parseTime=True&loc=Local")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("jwt.access_secret", "change-me-in-production")
	v.SetDefault("jwt.refresh_secret", "change-me-refresh")
	v.SetDefault("jwt.access_expiry", 15*time.Minute)
	v.SetDefault("jwt.refresh_expiry", 168*time.Hour)
	v.SetDefault("jwt.issuer", "stagepass")

	v.SetDefault("paystack.base_url", "https://api.paystack.co")
	v.SetDefault("paystack.secret_key", "")
	v.SetDefault("paystack.webhook_secret", "")
	v.SetDefault("paystack.verify_timeout", 15*time.Second)

	v.SetDefault("wallet.coin_rate_naira", "0.50")
	v.SetDefault("wallet.min_withdraw_coins", 1000)

	v.SetDefault("qrtoken.secret", "change-me-qr-secret")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stats_ttl", 30*time.Second)

	v.SetDefault("admin.email", "admin@stagepass.local")
	v.SetDefault("admin.password", "")

	return &Config{
		Server: ServerConfig{
			Port:         v.GetString("server.port"),
			Env:          v.GetString("server.env"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
		},
		Database: DatabaseConfig{
			DSN:             v.GetString("database.dsn"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
		},
		JWT: JWTConfig{
			AccessSecret:  v.GetString("jwt.access_secret"),
			RefreshSecret: v.GetString("jwt.refresh_secret"),
			AccessExpiry:  v.GetDuration("jwt.access_expiry"),
			RefreshExpiry: v.GetDuration("jwt.refresh_expiry"),
			Issuer:        v.GetString("jwt.issuer"),
		},
		Paystack: PaystackConfig{
			BaseURL:       v.GetString("paystack.base_url"),
			SecretKey:     v.GetString("paystack.secret_key"),
			WebhookSecret: v.GetString("paystack.webhook_secret"),
			VerifyTimeout: v.GetDuration("paystack.verify_timeout"),
		},
		Wallet: WalletConfig{
			CoinRateNaira:    v.GetString("wallet.coin_rate_naira"),
			MinWithdrawCoins: v.GetInt64("wallet.min_withdraw_coins"),
		},
		QRToken: QRTokenConfig{
			Secret: v.GetString("qrtoken.secret"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			StatsTTL: v.GetDuration("redis.stats_ttl"),
		},
		Admin: AdminConfig{
			Email:    v.GetString("admin.email"),
			Password: v.GetString("admin.password"),
		},
	}
}
