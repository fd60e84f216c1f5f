package authcore

import (
	"testing"
	"time"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.AccessSecret = []byte("access-secret")
	cfg.JWT.RefreshSecret = []byte("refresh-secret")
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.JWT.AccessTTL != 30*time.Minute {
		t.Fatalf("unexpected access TTL: %v", cfg.JWT.AccessTTL)
	}
	if cfg.JWT.RefreshTTL != 7*24*time.Hour {
		t.Fatalf("unexpected refresh TTL: %v", cfg.JWT.RefreshTTL)
	}
	if cfg.Password.Cost != 10 {
		t.Fatalf("unexpected bcrypt cost: %d", cfg.Password.Cost)
	}
	if cfg.Password.MinLength != 6 {
		t.Fatalf("unexpected password minimum: %d", cfg.Password.MinLength)
	}
	if !cfg.Audit.Enabled || !cfg.Metrics.Enabled {
		t.Fatal("expected audit and metrics enabled by default")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}

	broken := validConfig()
	broken.JWT.AccessSecret = nil
	if err := broken.Validate(); err == nil {
		t.Fatal("expected error for missing access secret")
	}

	broken = validConfig()
	broken.JWT.RefreshSecret = broken.JWT.AccessSecret
	if err := broken.Validate(); err == nil {
		t.Fatal("expected error for identical secrets")
	}

	broken = validConfig()
	broken.JWT.AccessTTL = 0
	if err := broken.Validate(); err == nil {
		t.Fatal("expected error for zero access TTL")
	}

	broken = validConfig()
	broken.Password.MinLength = 0
	if err := broken.Validate(); err == nil {
		t.Fatal("expected error for zero password minimum")
	}
}

func TestCloneConfigIsolatesSecrets(t *testing.T) {
	cfg := validConfig()
	clone := cloneConfig(cfg)

	clone.JWT.AccessSecret[0] ^= 0xff
	if cfg.JWT.AccessSecret[0] == clone.JWT.AccessSecret[0] {
		t.Fatal("expected cloned secret to be an independent copy")
	}
}
