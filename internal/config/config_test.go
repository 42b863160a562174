package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("DELIVERY_FEE", "")
	t.Setenv("TOKEN_TTL", "")

	cfg := Load()
	if cfg.StoreDriver != DriverPostgres {
		t.Fatalf("driver=%q", cfg.StoreDriver)
	}
	if cfg.DeliveryFee.String() != "2" {
		t.Fatalf("fee=%s", cfg.DeliveryFee)
	}
	if cfg.TokenTTL != 72*time.Hour {
		t.Fatalf("ttl=%s", cfg.TokenTTL)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for missing JWT_SECRET")
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cr3t")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("DELIVERY_FEE", "3.50")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("ADMIN_EMAILS", "Boss@Example.com")
	t.Setenv("FRONTEND_URL", "http://shop.local/")
	t.Setenv("PENDING_PAYMENT_TTL", "30m")

	cfg := Load()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("brokers=%v", cfg.KafkaBrokers)
	}
	if !cfg.IsAdminEmail("boss@example.com ") {
		t.Fatalf("admin email not matched case-insensitively")
	}
	if cfg.IsAdminEmail("someone@example.com") {
		t.Fatalf("unexpected admin")
	}
	if cfg.FrontendURL != "http://shop.local" {
		t.Fatalf("frontend=%q", cfg.FrontendURL)
	}
	if cfg.DeliveryFee.StringFixed(2) != "3.50" {
		t.Fatalf("fee=%s", cfg.DeliveryFee)
	}
	if cfg.PendingPaymentTTL != 30*time.Minute {
		t.Fatalf("pending ttl=%s", cfg.PendingPaymentTTL)
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := Config{JWTSecret: "x", StoreDriver: "sqlite"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected driver error")
	}
}

func TestValidate_PendingPaymentTTL(t *testing.T) {
	for ttl, ok := range map[time.Duration]bool{
		0:                true,
		30 * time.Minute: true,
		24 * time.Hour:   true,
		10 * time.Minute: false,
		25 * time.Hour:   false,
		-time.Minute:     false,
	} {
		cfg := Config{JWTSecret: "x", StoreDriver: DriverMemory, PendingPaymentTTL: ttl}
		if err := cfg.Validate(); (err == nil) != ok {
			t.Fatalf("ttl=%s: err=%v", ttl, err)
		}
	}
}
