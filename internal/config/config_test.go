package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	if err := os.Setenv("SERVER_PORT", "9090"); err != nil {
		t.Fatalf("Failed to set SERVER_PORT: %v", err)
	}
	if err := os.Setenv("ACCOUNT_IDS", "12, 34,56"); err != nil {
		t.Fatalf("Failed to set ACCOUNT_IDS: %v", err)
	}
	if err := os.Setenv("BACKFILL_DEFAULT_VALUE", "2782.79"); err != nil {
		t.Fatalf("Failed to set BACKFILL_DEFAULT_VALUE: %v", err)
	}
	if err := os.Setenv("BACKFILL_START_DATE", "2026-02-01"); err != nil {
		t.Fatalf("Failed to set BACKFILL_START_DATE: %v", err)
	}
	if err := os.Setenv("REDIS_CACHE_TTL", "30s"); err != nil {
		t.Fatalf("Failed to set REDIS_CACHE_TTL: %v", err)
	}
	defer func() {
		_ = os.Unsetenv("SERVER_PORT")
		_ = os.Unsetenv("ACCOUNT_IDS")
		_ = os.Unsetenv("BACKFILL_DEFAULT_VALUE")
		_ = os.Unsetenv("BACKFILL_START_DATE")
		_ = os.Unsetenv("REDIS_CACHE_TTL")
	}()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %v, want %v", cfg.Server.Port, "9090")
	}

	if got, want := len(cfg.Tracker.AccountIDs), 3; got != want {
		t.Fatalf("len(Tracker.AccountIDs) = %v, want %v", got, want)
	}
	if cfg.Tracker.AccountIDs[0] != "12" || cfg.Tracker.AccountIDs[1] != "34" || cfg.Tracker.AccountIDs[2] != "56" {
		t.Errorf("Tracker.AccountIDs = %v, want [12 34 56]", cfg.Tracker.AccountIDs)
	}

	if cfg.Tracker.BackfillDefaultValue.String() != "2782.79" {
		t.Errorf("Tracker.BackfillDefaultValue = %v, want 2782.79", cfg.Tracker.BackfillDefaultValue)
	}

	wantDate, _ := time.Parse("2006-01-02", "2026-02-01")
	if !cfg.Tracker.BackfillStartDate.Equal(wantDate) {
		t.Errorf("Tracker.BackfillStartDate = %v, want %v", cfg.Tracker.BackfillStartDate, wantDate)
	}

	if cfg.Database.Redis.CacheTTL != 30*time.Second {
		t.Errorf("Database.Redis.CacheTTL = %v, want %v", cfg.Database.Redis.CacheTTL, 30*time.Second)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Exchange.BaseURL != "https://mainnet.zklighter.elliot.ai" {
		t.Errorf("Exchange.BaseURL = %v, want default", cfg.Exchange.BaseURL)
	}
	if cfg.Exchange.RequestsPerSecond != 3.0 {
		t.Errorf("Exchange.RequestsPerSecond = %v, want 3.0", cfg.Exchange.RequestsPerSecond)
	}
	if cfg.Tracker.MaxConcurrentQueries != 4 {
		t.Errorf("Tracker.MaxConcurrentQueries = %v, want 4", cfg.Tracker.MaxConcurrentQueries)
	}
	if cfg.Publish.ArtifactName != "index.html" {
		t.Errorf("Publish.ArtifactName = %v, want index.html", cfg.Publish.ArtifactName)
	}
	if !cfg.Tracker.BackfillStartDate.IsZero() {
		t.Errorf("Tracker.BackfillStartDate = %v, want zero", cfg.Tracker.BackfillStartDate)
	}
}

func TestLoadConfigInvalidBackfill(t *testing.T) {
	if err := os.Setenv("BACKFILL_START_DATE", "02/01/2026"); err != nil {
		t.Fatalf("Failed to set BACKFILL_START_DATE: %v", err)
	}
	defer func() {
		_ = os.Unsetenv("BACKFILL_START_DATE")
	}()

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() expected error for malformed BACKFILL_START_DATE")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "account ids set",
			cfg: Config{
				Exchange: ExchangeConfig{BaseURL: "https://example.com"},
				Tracker:  TrackerConfig{AccountIDs: []string{"1"}},
			},
		},
		{
			name: "owner address set",
			cfg: Config{
				Exchange: ExchangeConfig{BaseURL: "https://example.com", OwnerAddress: "0xabc"},
			},
		},
		{
			name:    "missing base url",
			cfg:     Config{Tracker: TrackerConfig{AccountIDs: []string{"1"}}},
			wantErr: true,
		},
		{
			name:    "no accounts and no owner",
			cfg:     Config{Exchange: ExchangeConfig{BaseURL: "https://example.com"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{" , ,", 0},
		{"1", 1},
		{"1,2,3", 3},
		{" 1 , 2 ", 2},
	}

	for _, tt := range tests {
		if got := splitList(tt.input); len(got) != tt.want {
			t.Errorf("splitList(%q) = %v, want %d entries", tt.input, got, tt.want)
		}
	}
}

func TestPostgresURL(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "db",
		Port:     "5432",
		Database: "tracker",
		User:     "u",
		Password: "p",
	}

	want := "postgres://u:p@db:5432/tracker?sslmode=disable"
	if got := cfg.PostgresURL(); got != want {
		t.Errorf("PostgresURL() = %v, want %v", got, want)
	}
}
