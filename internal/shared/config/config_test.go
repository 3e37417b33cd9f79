package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RECONCILE_POLL_DELAYS", "")
	t.Setenv("GATEWAY_PROVIDER", "")

	cfg := Load()

	if got := cfg.GetAPIBasePath(); got != "/api/v1" {
		t.Errorf("GetAPIBasePath() = %q, want /api/v1", got)
	}
	if cfg.Gateway.Provider != "http" {
		t.Errorf("Gateway.Provider = %q, want http", cfg.Gateway.Provider)
	}
	if len(cfg.Reconcile.PollDelays) != 3 {
		t.Fatalf("PollDelays len = %d, want 3", len(cfg.Reconcile.PollDelays))
	}
	want := []time.Duration{500 * time.Millisecond, 900 * time.Millisecond, 1300 * time.Millisecond}
	for i, d := range want {
		if cfg.Reconcile.PollDelays[i] != d {
			t.Errorf("PollDelays[%d] = %v, want %v", i, cfg.Reconcile.PollDelays[i], d)
		}
	}
}

func TestGetDurationSliceEnv(t *testing.T) {
	fallback := []time.Duration{time.Second}

	tests := []struct {
		name  string
		value string
		want  []time.Duration
	}{
		{"unset", "", fallback},
		{"list", "100ms, 2s", []time.Duration{100 * time.Millisecond, 2 * time.Second}},
		{"bad entry", "100ms,soon", fallback},
		{"negative", "-1s", fallback},
		{"only separators", " , ", fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DELAYS", tt.value)
			got := getDurationSliceEnv("TEST_DELAYS", fallback)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestBuildDatabaseDSN(t *testing.T) {
	dsn := buildDatabaseDSN(DatabaseConfig{
		Host: "db", Port: "5432", User: "u", Password: "p", Name: "n", SSLMode: "disable",
	})
	want := "host=db port=5432 user=u password=p dbname=n sslmode=disable"
	if dsn != want {
		t.Errorf("dsn = %q, want %q", dsn, want)
	}
}
