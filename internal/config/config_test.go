package config

import (
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: Config{
				DBPath:    "./test.db",
				StartYear: 2022,
				Years:     4,
				Methods:   []string{"Cash", "Bank"},
				LogLevel:  "info",
			},
			wantErr: false,
		},
		{
			name: "empty db path",
			config: Config{
				DBPath:    "",
				StartYear: 2022,
				Years:     4,
				Methods:   []string{"Cash"},
				LogLevel:  "info",
			},
			wantErr: true,
		},
		{
			name: "zero years",
			config: Config{
				DBPath:    "./test.db",
				StartYear: 2022,
				Years:     0,
				Methods:   []string{"Cash"},
				LogLevel:  "info",
			},
			wantErr: true,
		},
		{
			name: "absurd span",
			config: Config{
				DBPath:    "./test.db",
				StartYear: 2022,
				Years:     500,
				Methods:   []string{"Cash"},
				LogLevel:  "info",
			},
			wantErr: true,
		},
		{
			name: "no methods",
			config: Config{
				DBPath:    "./test.db",
				StartYear: 2022,
				Years:     4,
				Methods:   nil,
				LogLevel:  "info",
			},
			wantErr: true,
		},
		{
			name: "duplicate methods",
			config: Config{
				DBPath:    "./test.db",
				StartYear: 2022,
				Years:     4,
				Methods:   []string{"Cash", "Cash"},
				LogLevel:  "info",
			},
			wantErr: true,
		},
		{
			name: "method containing transfer separator",
			config: Config{
				DBPath:    "./test.db",
				StartYear: 2022,
				Years:     4,
				Methods:   []string{"A to B"},
				LogLevel:  "info",
			},
			wantErr: true,
		},
		{
			name: "bad log level",
			config: Config{
				DBPath:    "./test.db",
				StartYear: 2022,
				Years:     4,
				Methods:   []string{"Cash"},
				LogLevel:  "loud",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("expected ok, got %v", err)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"TALLY_DB_PATH", "TALLY_START_YEAR", "TALLY_YEARS", "TALLY_TX_METHODS", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.DBPath != "./data/tally.db" {
		t.Fatalf("unexpected default db path %q", cfg.DBPath)
	}
	if cfg.StartYear != 2022 || cfg.Years != 4 {
		t.Fatalf("unexpected default span %d/%d", cfg.StartYear, cfg.Years)
	}
	if len(cfg.Methods) != 2 || cfg.Methods[0] != "Cash" || cfg.Methods[1] != "Bank" {
		t.Fatalf("unexpected default methods %v", cfg.Methods)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TALLY_DB_PATH", "/tmp/x.db")
	t.Setenv("TALLY_START_YEAR", "2020")
	t.Setenv("TALLY_YEARS", "10")
	t.Setenv("TALLY_TX_METHODS", "Cash, Bank ,Card")
	cfg := Load()
	if cfg.DBPath != "/tmp/x.db" || cfg.StartYear != 2020 || cfg.Years != 10 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if len(cfg.Methods) != 3 || cfg.Methods[2] != "Card" {
		t.Fatalf("unexpected methods %v", cfg.Methods)
	}
	if cfg.Span().Months() != 120 {
		t.Fatalf("unexpected span months %d", cfg.Span().Months())
	}
}
