package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(viper.New(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.DBDriver != "sqlite" || cfg.SecondLength != time.Second {
		t.Fatalf("defaults %+v", cfg)
	}
	if cfg.ReaperRetention != 30*time.Minute || len(cfg.CORSOrigins) != 1 {
		t.Fatalf("defaults %+v", cfg)
	}
}

func TestLoadEnvFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	env := "DB_DRIVER=Postgres\nCORS_ORIGINS=http://a.test, http://b.test,\nSECOND_MS=50\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("SECOND_MS", "-1")

	cfg, err := load(viper.New(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DBDriver != "postgres" || cfg.HTTPAddr != ":9999" {
		t.Fatalf("got %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("origins %v", cfg.CORSOrigins)
	}
	if cfg.SecondLength != time.Second {
		t.Fatalf("non-positive SECOND_MS should fall back, got %v", cfg.SecondLength)
	}
}
