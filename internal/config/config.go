package config

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr string

	DBDriver string // sqlite|postgres
	DBDSN    string

	AuthHMACSecret string

	LogLevel  string
	LogPretty bool

	CORSOrigins []string

	// SecondLength is the wall-clock length of one session clock second.
	SecondLength time.Duration

	ReaperSchedule  string
	ReaperRetention time.Duration

	SeedDemo bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_DSN", "")
	v.SetDefault("AUTH_HMAC_SECRET", "supersecret-dev-key")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("SECOND_MS", 1000)
	v.SetDefault("REAPER_SCHEDULE", "@every 1m")
	v.SetDefault("REAPER_RETENTION", "30m")
	v.SetDefault("SEED_DEMO", false)
}

// Load reads an optional .env in the working directory, then the process
// environment, which wins.
func Load() (*Config, error) {
	return load(viper.New(), ".")
}

func load(v *viper.Viper, dir string) (*Config, error) {
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(dir)
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, missing := err.(viper.ConfigFileNotFoundError); !missing {
			return nil, err
		}
		log.Debug().Msg("no .env file, using environment only")
	}

	secondMS := v.GetInt("SECOND_MS")
	if secondMS <= 0 {
		secondMS = 1000
	}
	cfg := &Config{
		HTTPAddr:        v.GetString("HTTP_ADDR"),
		DBDriver:        strings.ToLower(v.GetString("DB_DRIVER")),
		DBDSN:           v.GetString("DB_DSN"),
		AuthHMACSecret:  v.GetString("AUTH_HMAC_SECRET"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		LogPretty:       v.GetBool("LOG_PRETTY"),
		CORSOrigins:     csv(v.GetString("CORS_ORIGINS")),
		SecondLength:    time.Duration(secondMS) * time.Millisecond,
		ReaperSchedule:  v.GetString("REAPER_SCHEDULE"),
		ReaperRetention: v.GetDuration("REAPER_RETENTION"),
		SeedDemo:        v.GetBool("SEED_DEMO"),
	}
	log.Info().
		Str("addr", cfg.HTTPAddr).
		Str("db", cfg.DBDriver).
		Dur("second", cfg.SecondLength).
		Str("reaper", cfg.ReaperSchedule).
		Msg("config loaded")
	return cfg, nil
}

func csv(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
