package config

import (
	"os"
	"testing"
	"time"
)

const testSecret = "this_is_a_test_secret_key_with_32_chars_minimum"

func TestLoadConfig(t *testing.T) {
	os.Clearenv()
	os.Setenv("STORE_BACKEND", "Memory")
	os.Setenv("JWT_SECRET_KEY", testSecret)
	os.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	defer os.Clearenv()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.StoreBackend != BackendMemory {
		t.Errorf("StoreBackend = %q, want %q", cfg.StoreBackend, BackendMemory)
	}

	if cfg.HTTPPort != "8080" {
		t.Errorf("HTTPPort = %q, want %q", cfg.HTTPPort, "8080")
	}

	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("CORSAllowedOrigins = %v, want two trimmed origins", cfg.CORSAllowedOrigins)
	}

	if cfg.ActionMaxRetries != 5 {
		t.Errorf("ActionMaxRetries = %d, want 5", cfg.ActionMaxRetries)
	}
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
	}{
		{
			name: "Missing JWT_SECRET_KEY",
			envVars: map[string]string{
				"STORE_BACKEND": "memory",
			},
		},
		{
			name: "Missing DB_PASSWORD for postgres",
			envVars: map[string]string{
				"STORE_BACKEND":  "postgres",
				"JWT_SECRET_KEY": testSecret,
			},
		},
		{
			name: "Unknown backend",
			envVars: map[string]string{
				"STORE_BACKEND":  "cassandra",
				"JWT_SECRET_KEY": testSecret,
			},
		},
		{
			name: "Zero retries",
			envVars: map[string]string{
				"STORE_BACKEND":      "memory",
				"JWT_SECRET_KEY":     testSecret,
				"ACTION_MAX_RETRIES": "0",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			defer os.Clearenv()

			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}

			_, err := LoadConfig()
			if err == nil {
				t.Error("LoadConfig() expected error, got nil")
			}
		})
	}
}

func TestValidate_JWTSecretTooShort(t *testing.T) {
	cfg := &Config{
		StoreBackend:     BackendMemory,
		JWTSecret:        "short",
		ActionMaxRetries: 1,
		TokenTTLHours:    1,
	}

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for short JWT secret, got nil")
	}
}

func TestValidateProductionSecurity(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *Config
		shouldErr bool
	}{
		{
			name: "Valid production config",
			cfg: &Config{
				AppEnv:             "production",
				StoreBackend:       BackendPostgres,
				DBSSLMode:          "require",
				JWTSecret:          "production_secret_key_different_from_default",
				CORSAllowedOrigins: []string{"https://app.example"},
			},
			shouldErr: false,
		},
		{
			name: "Development mode - no validation",
			cfg: &Config{
				AppEnv:       "development",
				StoreBackend: BackendMemory,
			},
			shouldErr: false,
		},
		{
			name: "Production without SSL",
			cfg: &Config{
				AppEnv:             "production",
				StoreBackend:       BackendPostgres,
				DBSSLMode:          "disable",
				JWTSecret:          "production_secret",
				CORSAllowedOrigins: []string{"https://app.example"},
			},
			shouldErr: true,
		},
		{
			name: "Production with memory store",
			cfg: &Config{
				AppEnv:       "production",
				StoreBackend: BackendMemory,
			},
			shouldErr: true,
		},
		{
			name: "Production with wildcard CORS",
			cfg: &Config{
				AppEnv:             "production",
				StoreBackend:       BackendDynamoDB,
				JWTSecret:          "production_secret_key_different",
				CORSAllowedOrigins: []string{"*"},
			},
			shouldErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateProductionSecurity()
			if tt.shouldErr && err == nil {
				t.Error("ValidateProductionSecurity() expected error, got nil")
			}
			if !tt.shouldErr && err != nil {
				t.Errorf("ValidateProductionSecurity() unexpected error = %v", err)
			}
		})
	}
}

func TestGetDSN(t *testing.T) {
	cfg := &Config{
		DBHost:     "localhost",
		DBPort:     "5432",
		DBUser:     "testuser",
		DBPassword: "testpass",
		DBName:     "testdb",
		DBSSLMode:  "disable",
	}

	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable"
	if dsn := cfg.GetDSN(); dsn != expected {
		t.Errorf("GetDSN() = %q, want %q", dsn, expected)
	}
}

func TestDurations(t *testing.T) {
	cfg := &Config{TokenTTLHours: 2, RateLimitWindowSec: 30}

	if got := cfg.GetTokenTTL(); got != 2*time.Hour {
		t.Errorf("GetTokenTTL() = %v, want %v", got, 2*time.Hour)
	}
	if got := cfg.GetRateLimitWindow(); got != 30*time.Second {
		t.Errorf("GetRateLimitWindow() = %v, want %v", got, 30*time.Second)
	}
}
