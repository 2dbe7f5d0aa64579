package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	os.Setenv("GRPC_ADDR", ":8080")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GRPCAddr != ":8080" {
		t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, ":8080")
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q, want localhost:6379", cfg.RedisAddr)
	}
	if cfg.JWTIssuer != "care-link-auth" {
		t.Errorf("JWTIssuer = %q", cfg.JWTIssuer)
	}
	if cfg.JWTAudience != "care-link-api" {
		t.Errorf("JWTAudience = %q", cfg.JWTAudience)
	}
	if cfg.SessionConcurrencyPolicy != "kick_old" {
		t.Errorf("SessionConcurrencyPolicy = %q, want kick_old", cfg.SessionConcurrencyPolicy)
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.TelemetryKafkaTopic != "care-link-security-events" {
		t.Errorf("TelemetryKafkaTopic = %q", cfg.TelemetryKafkaTopic)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("GRPC_ADDR", ":9090")
	os.Setenv("SESSION_CONCURRENCY_POLICY", "block_new")
	os.Setenv("SESSION_IDLE_TIMEOUT", "45m")
	os.Setenv("JWT_ACCESS_TTL", "5m")
	os.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GRPCAddr != ":9090" {
		t.Errorf("GRPCAddr = %q, want :9090", cfg.GRPCAddr)
	}
	if cfg.SessionConcurrencyPolicy != "block_new" {
		t.Errorf("SessionConcurrencyPolicy = %q, want block_new", cfg.SessionConcurrencyPolicy)
	}
	if cfg.IdleTimeout() != 45*time.Minute {
		t.Errorf("IdleTimeout = %v, want 45m", cfg.IdleTimeout())
	}
	if cfg.AccessTTL() != 5*time.Minute {
		t.Errorf("AccessTTL = %v, want 5m", cfg.AccessTTL())
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Errorf("RedisAddr = %q", cfg.RedisAddr)
	}
}

func TestLoad_InvalidPolicy(t *testing.T) {
	os.Clearenv()
	os.Setenv("GRPC_ADDR", ":8080")
	os.Setenv("SESSION_CONCURRENCY_POLICY", "kick_everything")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid concurrency policy")
	}
}

func TestLoad_InvalidBcryptCost(t *testing.T) {
	os.Clearenv()
	os.Setenv("GRPC_ADDR", ":8080")
	os.Setenv("BCRYPT_COST", "99")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for out-of-range bcrypt cost")
	}
}

func TestLoad_ProductionRequiresStrongSecret(t *testing.T) {
	os.Clearenv()
	os.Setenv("GRPC_ADDR", ":8080")
	os.Setenv("APP_ENV", "production")
	os.Setenv("JWT_SECRET", "short")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for short JWT secret in production")
	}

	os.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	if _, err := Load(); err != nil {
		t.Fatalf("Load with strong secret: %v", err)
	}
}

func TestDurationFallbacks(t *testing.T) {
	cfg := &Config{JWTAccessTTL: "bogus", SessionIdleTimeout: "", LoginHandoffTTL: "-5m"}
	if cfg.AccessTTL() != 15*time.Minute {
		t.Errorf("AccessTTL fallback = %v, want 15m", cfg.AccessTTL())
	}
	if cfg.IdleTimeout() != 30*time.Minute {
		t.Errorf("IdleTimeout fallback = %v, want 30m", cfg.IdleTimeout())
	}
	if cfg.HandoffTTL() != 5*time.Minute {
		t.Errorf("HandoffTTL fallback = %v, want 5m", cfg.HandoffTTL())
	}
}

func TestTelemetryKafkaBrokersList(t *testing.T) {
	cfg := &Config{TelemetryKafkaBrokers: "a:9092, b:9092,,"}
	got := cfg.TelemetryKafkaBrokersList()
	if len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Errorf("brokers = %v", got)
	}
	empty := &Config{}
	if empty.TelemetryKafkaBrokersList() != nil {
		t.Error("empty brokers should return nil")
	}
}
