package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Environment != "development" {
		t.Errorf("environment = %q, want development", cfg.Environment)
	}
	if cfg.DBBackend != DatabaseSQLite {
		t.Errorf("backend = %q, want sqlite", cfg.DBBackend)
	}
	if cfg.DBDSN != "shotbuilder.db" {
		t.Errorf("sqlite DSN must default, got %q", cfg.DBDSN)
	}
	if cfg.HTTPPort != 8080 {
		t.Errorf("port = %d, want 8080", cfg.HTTPPort)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("SHOTBUILDER_DB_BACKEND", "oracle")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestLoadRequiresDSNForPostgres(t *testing.T) {
	t.Setenv("SHOTBUILDER_DB_BACKEND", "postgres")
	if _, err := Load(); err == nil {
		t.Fatalf("postgres without DSN must fail")
	}

	t.Setenv("SHOTBUILDER_DB_DSN", "host=localhost user=shotbuilder dbname=shotbuilder")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBBackend != DatabasePostgres {
		t.Errorf("backend = %q, want postgres", cfg.DBBackend)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("SHOTBUILDER_HTTP_PORT", "9090")
	t.Setenv("SHOTBUILDER_CACHE_ENABLED", "true")
	t.Setenv("SHOTBUILDER_TRACING_SAMPLE_RATE", "0.25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != 9090 {
		t.Errorf("port = %d, want 9090", cfg.HTTPPort)
	}
	if !cfg.CacheEnabled {
		t.Errorf("cache enabled override ignored")
	}
	if cfg.TracingSampleRate != 0.25 {
		t.Errorf("sample rate = %v, want 0.25", cfg.TracingSampleRate)
	}
}
