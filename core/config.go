package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address                   string
		Host                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		PasswordResetTimeoutDelta time.Duration
		MaxUploadSize             string // echo body limit, e.g. "512M"
		CampaignTickInterval      time.Duration
		DisableReqLogs            bool
	}

	DatabaseConfig struct {
		Engine        string // postgres | sqlite
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		SQLitePath    string
	}

	StorageConfig struct {
		Driver        string // local | s3
		LocalDir      string
		PublicBaseURL string
		Bucket        string
		Region        string
		Endpoint      string // S3-compatible providers
		PathStyle     bool
		AccessKey     string
		SecretKey     string
	}

	Config struct {
		AppName           string
		Env               string // DEV (local; default), TEST, QA, PROD
		Build             string
		Debug             bool
		TestMode          bool
		SecretKey         string
		WorkDir           string
		FrontendBaseURL   string
		FromEmail         string
		FromName          string
		AdminNotifyEmails []string
		SendgridApiKey    string
		RollbarToken      string

		Server   ServerConfig
		Database DatabaseConfig
		Storage  StorageConfig
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.FromName, Address: c.FromEmail}
}

// NewConfig reads the app configuration from env vars prefixed with the current ENV (eg. DEV_DEBUG=false),
// after loading `config/.env.<env>` if it exists.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "Nyumba")
	v.SetDefault("secretKey", "a8w!z$+dk0l=3n9q&t)xr2#vcs@u7m4p(e6h^yj5g1*bf-oi")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("fromEmail", "noreply@localhost")
	v.SetDefault("fromName", "Nyumba")
	v.SetDefault("adminNotifyEmails", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server_address", ":8000")
	v.SetDefault("server_host", "localhost")
	v.SetDefault("server_debugHost", ":4000")
	v.SetDefault("server_shutdownTimeout", 5*time.Second)
	v.SetDefault("server_jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server_jwtRefreshExpirationDelta", 30*24*time.Hour)
	v.SetDefault("server_passwordResetTimeoutDelta", 3*24*time.Hour)
	v.SetDefault("server_maxUploadSize", "512M")
	v.SetDefault("server_campaignTickInterval", time.Minute)
	v.SetDefault("server_disableReqLogs", false)

	v.SetDefault("database_engine", "postgres")
	v.SetDefault("database_host", "localhost")
	v.SetDefault("database_port", 5432)
	v.SetDefault("database_name", "nyumba")
	v.SetDefault("database_user", "nyumba")
	v.SetDefault("database_password", "nyumba")
	v.SetDefault("database_adminUser", "postgres")
	v.SetDefault("database_adminPassword", "")
	v.SetDefault("database_disableTLS", true)
	v.SetDefault("database_sqlitePath", "nyumba.db")

	v.SetDefault("storage_driver", "local")
	v.SetDefault("storage_localDir", "media")
	v.SetDefault("storage_publicBaseURL", "http://localhost:8000/media")
	v.SetDefault("storage_bucket", "")
	v.SetDefault("storage_region", "us-east-1")
	v.SetDefault("storage_endpoint", "")
	v.SetDefault("storage_pathStyle", false)
	v.SetDefault("storage_accessKey", "")
	v.SetDefault("storage_secretKey", "")

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

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
	v.AutomaticEnv()

	return &Config{
		AppName:           v.GetString("appName"),
		Env:               env,
		Build:             v.GetString("build"),
		Debug:             v.GetBool("debug"),
		TestMode:          v.GetBool("testMode"),
		SecretKey:         v.GetString("secretKey"),
		WorkDir:           wd,
		FrontendBaseURL:   strings.TrimSuffix(v.GetString("frontendBaseURL"), "/"),
		FromEmail:         v.GetString("fromEmail"),
		FromName:          v.GetString("fromName"),
		AdminNotifyEmails: splitList(v.GetString("adminNotifyEmails")),
		SendgridApiKey:    v.GetString("sendgridApiKey"),
		RollbarToken:      v.GetString("rollbarToken"),
		Server: ServerConfig{
			Address:                   v.GetString("server_address"),
			Host:                      v.GetString("server_host"),
			DebugHost:                 v.GetString("server_debugHost"),
			ShutdownTimeout:           v.GetDuration("server_shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server_jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server_jwtRefreshExpirationDelta"),
			PasswordResetTimeoutDelta: v.GetDuration("server_passwordResetTimeoutDelta"),
			MaxUploadSize:             v.GetString("server_maxUploadSize"),
			CampaignTickInterval:      v.GetDuration("server_campaignTickInterval"),
			DisableReqLogs:            v.GetBool("server_disableReqLogs"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database_engine"),
			Host:          v.GetString("database_host"),
			Port:          v.GetInt("database_port"),
			Name:          v.GetString("database_name"),
			User:          v.GetString("database_user"),
			Password:      v.GetString("database_password"),
			AdminUser:     v.GetString("database_adminUser"),
			AdminPassword: v.GetString("database_adminPassword"),
			DisableTLS:    v.GetBool("database_disableTLS"),
			SQLitePath:    v.GetString("database_sqlitePath"),
		},
		Storage: StorageConfig{
			Driver:        v.GetString("storage_driver"),
			LocalDir:      v.GetString("storage_localDir"),
			PublicBaseURL: strings.TrimSuffix(v.GetString("storage_publicBaseURL"), "/"),
			Bucket:        v.GetString("storage_bucket"),
			Region:        v.GetString("storage_region"),
			Endpoint:      v.GetString("storage_endpoint"),
			PathStyle:     v.GetBool("storage_pathStyle"),
			AccessKey:     v.GetString("storage_accessKey"),
			SecretKey:     v.GetString("storage_secretKey"),
		},
	}
}

// NewTestConfig returns a Config suitable for tests: in-memory sqlite, local storage, no external services.
func NewTestConfig() *Config {
	conf := NewConfig()
	conf.Env = "TEST"
	conf.Debug = false
	conf.TestMode = true
	conf.SecretKey = "test-secret"
	conf.FrontendBaseURL = "http://test.local"
	conf.AdminNotifyEmails = []string{"sales@test.local"}
	conf.Server.DisableReqLogs = true
	conf.Database.Engine = "sqlite"
	conf.Database.SQLitePath = ":memory:"
	conf.Storage.Driver = "local"
	conf.Storage.PublicBaseURL = "http://test.local/media"
	return conf
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = CleanString(item, true /* lower */); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Getwd tries to find the project root (the directory holding go.mod).
// go-test changes the working directory to the test package being run during tests,
// so we walk up from there. Falls back to the current directory for deployed binaries.
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(fmt.Errorf("core.Getwd: %w", err))
	}
	currDir := wd
	for {
		if _, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}
