// Package config loads nexbot settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

// Config is every setting the bot and the console read.
type Config struct {
	DiscordToken          string   `mapstructure:"DISCORD_TOKEN" validate:"required"`
	GuildID               string   `mapstructure:"DISCORD_GUILD_ID" validate:"required"`
	ProjectCategoryID     string   `mapstructure:"PROJECT_CATEGORY_ID" validate:"required"`
	AnnouncementChannelID string   `mapstructure:"ANNOUNCEMENT_CHANNEL_ID" validate:"required"`
	StaffRoles            []string `mapstructure:"STAFF_ROLES" validate:"min=1,dive,required"`
	ManagerRoles          []string `mapstructure:"MANAGER_ROLES"`
	Presence              string   `mapstructure:"PRESENCE"`

	StoreBackend  string `mapstructure:"STORE_BACKEND" validate:"oneof=sqlite mongo"`
	SQLitePath    string `mapstructure:"SQLITE_PATH" validate:"required_if=StoreBackend sqlite"`
	MongoURI      string `mapstructure:"MONGO_URI" validate:"required_if=StoreBackend mongo"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE" validate:"required_if=StoreBackend mongo"`

	HealthAddr  string `mapstructure:"HEALTH_ADDR"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	Environment string `mapstructure:"ENVIRONMENT"`
	SentryDSN   string `mapstructure:"SENTRY_DSN"`
}

// defaults are the values used when neither the environment nor the .env
// file sets a key. Every key is listed so AutomaticEnv can see it during
// Unmarshal.
var defaults = map[string]any{
	"DISCORD_TOKEN":           "",
	"DISCORD_GUILD_ID":        "",
	"PROJECT_CATEGORY_ID":     "1318943943391580161",
	"ANNOUNCEMENT_CHANNEL_ID": "1318945614804942878",
	"STAFF_ROLES":             []string{"Core Team"},
	"MANAGER_ROLES":           []string{"Management"},
	"PRESENCE":                "Nexions",
	"STORE_BACKEND":           BackendSQLite,
	"SQLITE_PATH":             "data/nexbot.db",
	"MONGO_URI":               "",
	"MONGO_DATABASE":          "nexbot",
	"HEALTH_ADDR":             ":8080",
	"LOG_LEVEL":               "info",
	"ENVIRONMENT":             "development",
	"SENTRY_DSN":              "",
}

// Load reads envFile into the process environment when it exists, then
// resolves every key from the environment with defaults. Variables already
// set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.StaffRoles = cleanList(cfg.StaffRoles)
	cfg.ManagerRoles = cleanList(cfg.ManagerRoles)
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	return cfg, nil
}

// cleanList trims entries and drops empty ones, so "Core Team, Leads" and
// "Core Team,Leads" mean the same thing.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks everything the bot needs to connect to Discord.
func (c *Config) Validate() error {
	return describe(validate.Struct(c))
}

// ValidateStore checks only the store settings, for the console.
func (c *Config) ValidateStore() error {
	return describe(validate.StructPartial(c, "StoreBackend", "SQLitePath", "MongoURI", "MongoDatabase"))
}

// IsDevelopment reports whether ENVIRONMENT is development.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// keys maps field names back to environment variables for error messages.
var keys = map[string]string{
	"DiscordToken":          "DISCORD_TOKEN",
	"GuildID":               "DISCORD_GUILD_ID",
	"ProjectCategoryID":     "PROJECT_CATEGORY_ID",
	"AnnouncementChannelID": "ANNOUNCEMENT_CHANNEL_ID",
	"StaffRoles":            "STAFF_ROLES",
	"StoreBackend":          "STORE_BACKEND",
	"SQLitePath":            "SQLITE_PATH",
	"MongoURI":              "MONGO_URI",
	"MongoDatabase":         "MONGO_DATABASE",
}

func describe(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		name := keys[fe.StructField()]
		if name == "" {
			name = fe.StructField()
		}
		switch fe.Tag() {
		case "oneof":
			problems = append(problems, fmt.Sprintf("%s must be one of: %s", name, fe.Param()))
		default:
			problems = append(problems, name+" is required")
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
}
