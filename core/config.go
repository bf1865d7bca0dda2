package core

import (
	"encoding/hex"
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host            string
		Port            string
		DebugHost       string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
		LoginRateLimit  float64 // requests per second per client IP; 0 disables
	}

	SessionConfig struct {
		Name   string
		Store  string // cookie | filesystem | redis
		Path   string // filesystem store directory
		MaxAge int    // seconds
		Secure bool
	}

	EmailConfig struct {
		Host           string
		Port           int
		User           string
		Password       string
		Recipient      string
		DefaultFrom    string
		SendgridAPIKey string
		Timeout        time.Duration
	}

	DatabaseConfig struct {
		Engine     string
		Host       string
		Port       string
		Name       string
		User       string
		Password   string
		DisableTLS bool
	}

	RedisConfig struct {
		Addr     string
		Password string
		DB       int
	}

	LogConfig struct {
		File       string
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
	}

	Config struct {
		Env          string
		Build        string
		AppName      string
		Debug        bool
		TestMode     bool
		SecretKey    string
		Storage      string // memory | postgres
		RollbarToken string

		// SecretKeyGenerated is set when no secret key was configured and a random one was generated.
		// Sessions signed with it do not survive a restart.
		SecretKeyGenerated bool

		Server   ServerConfig
		Session  SessionConfig
		Email    EmailConfig
		Database DatabaseConfig
		Redis    RedisConfig
		Log      LogConfig
	}
)

// SMTPConfigured reports whether enough settings are present to submit mail over SMTP.
func (c EmailConfig) SMTPConfigured() bool {
	return c.Host != "" && c.User != "" && c.Password != "" && c.Recipient != ""
}

// From is the sender of outgoing mail: DefaultFrom, else the SMTP user.
func (c EmailConfig) From(appName string) mail.Address {
	if a, err := mail.ParseAddress(c.DefaultFrom); err == nil {
		return *a
	}
	if c.User != "" {
		return mail.Address{Name: appName, Address: c.User}
	}
	return mail.Address{Name: appName, Address: "no-reply@eduquest.com"}
}

// RecipientAddress is where registration leads are sent; empty when unconfigured.
func (c EmailConfig) RecipientAddress() mail.Address {
	if a, err := mail.ParseAddress(c.Recipient); err == nil {
		return *a
	}
	return mail.Address{Address: c.Recipient}
}

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)

	v.SetDefault("debug", "false")
	v.SetDefault("test_mode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("app_name", "EduQuest Academy")
	v.SetDefault("secret_key", "")
	v.SetDefault("storage", "memory")
	v.SetDefault("rollbar_token", "")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.debug_host", "127.0.0.1:4000")
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.login_rate_limit", 5.0)

	v.SetDefault("session.name", "eduquest-session")
	v.SetDefault("session.store", "filesystem")
	v.SetDefault("session.path", "")
	v.SetDefault("session.max_age", 86400)
	v.SetDefault("session.secure", false)

	v.SetDefault("email.host", "smtp.gmail.com")
	v.SetDefault("email.port", 587)
	v.SetDefault("email.user", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.recipient", "")
	v.SetDefault("email.default_from", "")
	v.SetDefault("email.sendgrid_api_key", "")
	v.SetDefault("email.timeout", 20*time.Second)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "eduquest")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.disable_tls", true)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
}

// bindLegacyEnv keeps the variable names of the first deployment working.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("secret_key", "EDUQUEST_SECRET_KEY", "SECRET_KEY")
	_ = v.BindEnv("debug", "EDUQUEST_DEBUG", "FLASK_DEBUG")
	_ = v.BindEnv("server.port", "EDUQUEST_SERVER_PORT", "PORT")
	_ = v.BindEnv("email.user", "EDUQUEST_EMAIL_USER", "EMAIL_HOST_USER")
	_ = v.BindEnv("email.password", "EDUQUEST_EMAIL_PASSWORD", "EMAIL_HOST_PASSWORD")
	_ = v.BindEnv("email.recipient", "EDUQUEST_EMAIL_RECIPIENT", "RECIPIENT_EMAIL")
}

// NewConfig reads the configuration from defaults, the optional `config/.env.<env>` file and the environment.
func NewConfig() *Config {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("test_mode", true)
	}
	v.SetEnvPrefix("EDUQUEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	bindLegacyEnv(v)
	v.AutomaticEnv()
	return fromViper(v, env)
}

func fromViper(v *viper.Viper, env string) *Config {
	conf := &Config{
		Env:          env,
		Build:        v.GetString("build"),
		AppName:      v.GetString("app_name"),
		Debug:        parseDebug(v.GetString("debug")),
		TestMode:     v.GetBool("test_mode"),
		SecretKey:    v.GetString("secret_key"),
		Storage:      CleanString(v.GetString("storage"), true /* lower */),
		RollbarToken: v.GetString("rollbar_token"),
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Port:            v.GetString("server.port"),
			DebugHost:       v.GetString("server.debug_host"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			LoginRateLimit:  v.GetFloat64("server.login_rate_limit"),
		},
		Session: SessionConfig{
			Name:   v.GetString("session.name"),
			Store:  CleanString(v.GetString("session.store"), true /* lower */),
			Path:   v.GetString("session.path"),
			MaxAge: v.GetInt("session.max_age"),
			Secure: v.GetBool("session.secure"),
		},
		Email: EmailConfig{
			Host:           v.GetString("email.host"),
			Port:           v.GetInt("email.port"),
			User:           v.GetString("email.user"),
			Password:       v.GetString("email.password"),
			Recipient:      v.GetString("email.recipient"),
			DefaultFrom:    v.GetString("email.default_from"),
			SendgridAPIKey: v.GetString("email.sendgrid_api_key"),
			Timeout:        v.GetDuration("email.timeout"),
		},
		Database: DatabaseConfig{
			Engine:     v.GetString("database.engine"),
			Host:       v.GetString("database.host"),
			Port:       v.GetString("database.port"),
			Name:       v.GetString("database.name"),
			User:       v.GetString("database.user"),
			Password:   v.GetString("database.password"),
			DisableTLS: v.GetBool("database.disable_tls"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			File:       v.GetString("log.file"),
			MaxSizeMB:  v.GetInt("log.max_size_mb"),
			MaxBackups: v.GetInt("log.max_backups"),
			MaxAgeDays: v.GetInt("log.max_age_days"),
		},
	}

	// the recipient falls back to the sending account
	if conf.Email.Recipient == "" {
		conf.Email.Recipient = conf.Email.User
	}
	if conf.SecretKey == "" {
		conf.SecretKey = hex.EncodeToString(securecookie.GenerateRandomKey(32))
		conf.SecretKeyGenerated = true
	}
	return conf
}

func parseDebug(s string) bool {
	switch CleanString(s, true /* lower */) {
	case "1", "true", "debug", "yes", "on":
		return true
	}
	return false
}
