package core

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const defaultSecretKey = "t0p-s3cret)canteen$+57=dz&uoxh2(h!x)#*c2(#yg4h"

var ErrDefaultSecretKey = errors.New("secretKey must be set outside debug mode")

// Store backends
const (
	StoreMemory   = "memory"
	StoreXLSX     = "xlsx"
	StoreGSheets  = "gsheets"
	StorePostgres = "postgres"
)

type (
	ServerConfig struct {
		Host              string
		Port              int
		DebugHost         string
		ShutdownTimeout   time.Duration
		DisableReqLogs    bool
		SessionCookieName string
		SessionTTL        time.Duration
		SecureCookie      bool
	}

	StoreConfig struct {
		Backend        string
		SpreadsheetID  string
		GCPBase64Creds string
		GCPCredsFile   string
		XLSXPath       string
		OpenRetryDelay time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	RedisConfig struct {
		Enabled  bool
		Address  string
		Password string
		DB       int
	}

	// Config holds every setting of the app. Values come from the environment,
	// prefixed with the ENV name (DEV_, TEST_, QA_, PROD_).
	Config struct {
		Env      string
		Build    string
		Debug    bool
		TestMode bool
		WorkDir  string

		AppName          string
		SecretKey        string
		DefaultFromEmail mail.Address
		StaffInboxEmail  string
		SchoolDomain     string

		SendgridApiKey string
		RollbarToken   string
		GeminiApiKey   string
		GeminiModel    string

		Server   ServerConfig
		Store    StoreConfig
		Database DatabaseConfig
		Redis    RedisConfig
	}
)

func (c DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// NewConfig loads the config of the current ENV (DEV by default).
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("build", "dev")
	conf.SetDefault("appName", "SLPS Canteen")
	conf.SetDefault("secretKey", defaultSecretKey)
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("staffInboxEmail", "")
	conf.SetDefault("schoolDomain", "slps.one")
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("geminiApiKey", "")
	conf.SetDefault("geminiModel", "gemini-2.5-flash")

	conf.SetDefault("server.host", "0.0.0.0")
	conf.SetDefault("server.port", 8000)
	conf.SetDefault("server.debugHost", "0.0.0.0:4000")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.disableReqLogs", false)
	conf.SetDefault("server.sessionCookieName", "canteen_session")
	conf.SetDefault("server.sessionTTL", 7*24*time.Hour)
	conf.SetDefault("server.secureCookie", false)

	conf.SetDefault("store.backend", StoreXLSX)
	conf.SetDefault("store.spreadsheetID", "")
	conf.SetDefault("store.gcpBase64Creds", "")
	conf.SetDefault("store.gcpCredsFile", "credentials.json")
	conf.SetDefault("store.xlsxPath", "canteen.xlsx")
	conf.SetDefault("store.openRetryDelay", 2*time.Second)

	conf.SetDefault("database.engine", "postgres")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", 5432)
	conf.SetDefault("database.name", "canteen")
	conf.SetDefault("database.user", "canteen")
	conf.SetDefault("database.password", "")
	conf.SetDefault("database.adminUser", "")
	conf.SetDefault("database.adminPassword", "")
	conf.SetDefault("database.disableTLS", false)

	conf.SetDefault("redis.enabled", false)
	conf.SetDefault("redis.address", "localhost:6379")
	conf.SetDefault("redis.password", "")
	conf.SetDefault("redis.db", 0)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
		conf.SetDefault("store.backend", StoreMemory)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	// the canteen used to be deployed with these unprefixed names
	legacyEnv := map[string]string{
		"secretKey":            "FLASK_SECRET_KEY",
		"store.spreadsheetID":  "SPREADSHEET_ID",
		"store.gcpBase64Creds": "GCP_BASE64_CREDS",
		"geminiApiKey":         "GEMINI_API_KEY",
	}
	for key, name := range legacyEnv {
		prefixed := env + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if val := os.Getenv(name); val != "" && os.Getenv(prefixed) == "" {
			conf.Set(key, val)
		}
	}

	from, err := mail.ParseAddress(conf.GetString("defaultFromEmail"))
	if err != nil {
		from = &mail.Address{Address: conf.GetString("defaultFromEmail")}
	}

	c := &Config{
		Env:      env,
		Build:    conf.GetString("build"),
		Debug:    conf.GetBool("debug"),
		TestMode: conf.GetBool("testMode"),
		WorkDir:  wd,

		AppName:          conf.GetString("appName"),
		SecretKey:        conf.GetString("secretKey"),
		DefaultFromEmail: *from,
		StaffInboxEmail:  conf.GetString("staffInboxEmail"),
		SchoolDomain:     conf.GetString("schoolDomain"),

		SendgridApiKey: conf.GetString("sendgridApiKey"),
		RollbarToken:   conf.GetString("rollbarToken"),
		GeminiApiKey:   conf.GetString("geminiApiKey"),
		GeminiModel:    conf.GetString("geminiModel"),

		Server: ServerConfig{
			Host:              conf.GetString("server.host"),
			Port:              conf.GetInt("server.port"),
			DebugHost:         conf.GetString("server.debugHost"),
			ShutdownTimeout:   conf.GetDuration("server.shutdownTimeout"),
			DisableReqLogs:    conf.GetBool("server.disableReqLogs"),
			SessionCookieName: conf.GetString("server.sessionCookieName"),
			SessionTTL:        conf.GetDuration("server.sessionTTL"),
			SecureCookie:      conf.GetBool("server.secureCookie"),
		},
		Store: StoreConfig{
			Backend:        strings.ToLower(conf.GetString("store.backend")),
			SpreadsheetID:  conf.GetString("store.spreadsheetID"),
			GCPBase64Creds: conf.GetString("store.gcpBase64Creds"),
			GCPCredsFile:   conf.GetString("store.gcpCredsFile"),
			XLSXPath:       conf.GetString("store.xlsxPath"),
			OpenRetryDelay: conf.GetDuration("store.openRetryDelay"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("database.engine"),
			Host:          conf.GetString("database.host"),
			Port:          conf.GetInt("database.port"),
			Name:          conf.GetString("database.name"),
			User:          conf.GetString("database.user"),
			Password:      conf.GetString("database.password"),
			AdminUser:     conf.GetString("database.adminUser"),
			AdminPassword: conf.GetString("database.adminPassword"),
			DisableTLS:    conf.GetBool("database.disableTLS"),
		},
		Redis: RedisConfig{
			Enabled:  conf.GetBool("redis.enabled"),
			Address:  conf.GetString("redis.address"),
			Password: conf.GetString("redis.password"),
			DB:       conf.GetInt("redis.db"),
		},
	}
	if err = c.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	return c
}

// Validate rejects settings that are only safe for local development.
func (c *Config) Validate() error {
	if !c.Debug && (c.SecretKey == "" || c.SecretKey == defaultSecretKey) {
		return ErrDefaultSecretKey
	}
	return nil
}

// NewTestConfig returns a Config suited for tests: in-memory store, no debug output.
func NewTestConfig() *Config {
	return &Config{
		Env:              "TEST",
		Build:            "test",
		TestMode:         true,
		AppName:          "SLPS Canteen",
		SecretKey:        "test-secret",
		DefaultFromEmail: mail.Address{Name: "SLPS Canteen", Address: "noreply@localhost"},
		StaffInboxEmail:  "canteen@slps.one",
		SchoolDomain:     "slps.one",
		GeminiModel:      "gemini-2.5-flash",
		Server: ServerConfig{
			DisableReqLogs:    true,
			SessionCookieName: "canteen_session",
			SessionTTL:        time.Hour,
			ShutdownTimeout:   time.Second,
		},
		Store: StoreConfig{Backend: StoreMemory},
	}
}
