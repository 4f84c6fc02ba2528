package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Port          string
	DBDriver      string
	DBPath        string
	DatabaseURL   string
	JWTSecret     string
	TokenTTL      time.Duration
	CORSOrigins   []string
	MigrationsDir string
}

var defaults = map[string]interface{}{
	"port":            "8080",
	"db_driver":       "sqlite3",
	"db_path":         "./data/notepomo.db",
	"database_url":    "",
	"jwt_secret":      "change-this-secret",
	"token_ttl_hours": 72,
	"cors_origins":    "http://localhost:5173,http://127.0.0.1:5173",
	"migrations_dir":  "",
}

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"port":            "port",
	"db-driver":       "db_driver",
	"db-path":         "db_path",
	"database-url":    "database_url",
	"jwt-secret":      "jwt_secret",
	"token-ttl-hours": "token_ttl_hours",
	"cors-origins":    "cors_origins",
	"migrations-dir":  "migrations_dir",
}

// RegisterFlags adds the flags Load understands to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "optional config file (yaml, json or toml)")
	fs.String("port", "", "HTTP listen port")
	fs.String("db-driver", "", "database driver: sqlite3 or postgres")
	fs.String("db-path", "", "sqlite database file")
	fs.String("database-url", "", "postgres connection string")
	fs.String("jwt-secret", "", "HMAC secret for access tokens")
	fs.Int("token-ttl-hours", 0, "access token lifetime in hours")
	fs.String("cors-origins", "", "comma separated list of allowed origins")
	fs.String("migrations-dir", "", "read migrations from this directory instead of the embedded set")
}

// Load resolves configuration from, in increasing priority: defaults, an
// optional config file, environment variables, and flags that were set
// explicitly. flags may be nil.
func Load(flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	configFile := os.Getenv("CONFIG_FILE")
	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
		if f := flags.Lookup("config"); f != nil && f.Changed {
			configFile = f.Value.String()
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	ttlHours := v.GetInt("token_ttl_hours")
	if ttlHours <= 0 {
		ttlHours = defaults["token_ttl_hours"].(int)
	}

	origins := splitList(v.GetString("cors_origins"))
	if len(origins) == 0 {
		origins = v.GetStringSlice("cors_origins")
	}
	if len(origins) == 0 {
		origins = splitList(defaults["cors_origins"].(string))
	}

	return Config{
		Port:          v.GetString("port"),
		DBDriver:      v.GetString("db_driver"),
		DBPath:        v.GetString("db_path"),
		DatabaseURL:   v.GetString("database_url"),
		JWTSecret:     v.GetString("jwt_secret"),
		TokenTTL:      time.Duration(ttlHours) * time.Hour,
		CORSOrigins:   origins,
		MigrationsDir: v.GetString("migrations_dir"),
	}, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
