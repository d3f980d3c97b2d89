package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers
const (
	StoreMemory = "memory"
	StoreBolt   = "bolt"
	StoreRedis  = "redis"
)

type Config struct {
	Env      string
	Debug    bool
	TestMode bool
	AppName  string
	Build    string
	WorkDir  string

	Store struct {
		Driver     string
		Path       string
		QuotaBytes int
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
		Channel  string
	}

	// Debounce is the window in which bursts of store changes are coalesced into one view refresh.
	Debounce time.Duration
	// Latency is the artificial delay every portal mutation waits before touching the store.
	Latency time.Duration

	ActivityMaxEntries int

	RollbarToken     string
	SendgridAPIKey   string
	DefaultFromEmail string
}

// NewConfig loads the configuration from defaults, the optional config/.env.<env> file and the environment.
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Coursework")
	conf.SetDefault("build", "dev")
	conf.SetDefault("store.driver", StoreMemory)
	conf.SetDefault("store.path", filepath.Join("var", "coursework.db"))
	conf.SetDefault("store.quotaBytes", 5*1024*1024) // browsers grant ~5MB per origin
	conf.SetDefault("redis.addr", "localhost:6379")
	conf.SetDefault("redis.password", "")
	conf.SetDefault("redis.db", 0)
	conf.SetDefault("redis.channel", "coursework:changes")
	conf.SetDefault("events.debounce", 75*time.Millisecond)
	conf.SetDefault("portal.latency", 300*time.Millisecond)
	conf.SetDefault("activity.maxEntries", 500)
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		conf.SetDefault("testMode", true)
		conf.SetDefault("portal.latency", time.Duration(0))
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	wd := Getwd()
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	c := &Config{
		Env:                env,
		Debug:              conf.GetBool("debug"),
		TestMode:           conf.GetBool("testMode"),
		AppName:            conf.GetString("appName"),
		Build:              conf.GetString("build"),
		WorkDir:            wd,
		Debounce:           conf.GetDuration("events.debounce"),
		Latency:            conf.GetDuration("portal.latency"),
		ActivityMaxEntries: conf.GetInt("activity.maxEntries"),
		RollbarToken:       conf.GetString("rollbarToken"),
		SendgridAPIKey:     conf.GetString("sendgridApiKey"),
		DefaultFromEmail:   conf.GetString("defaultFromEmail"),
	}
	c.Store.Driver = strings.ToLower(conf.GetString("store.driver"))
	c.Store.Path = conf.GetString("store.path")
	c.Store.QuotaBytes = conf.GetInt("store.quotaBytes")
	c.Redis.Addr = conf.GetString("redis.addr")
	c.Redis.Password = conf.GetString("redis.password")
	c.Redis.DB = conf.GetInt("redis.db")
	c.Redis.Channel = conf.GetString("redis.channel")

	if !filepath.IsAbs(c.Store.Path) {
		c.Store.Path = filepath.Join(wd, c.Store.Path)
	}
	return c
}
