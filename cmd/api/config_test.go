package main

import (
	"testing"
	"time"

	"github.com/mammadovafidan/fruits-e-commerce-website/internal/cart"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"ORDERS_TABLE", "CART_TTL", "RUN_LOCAL", "MIGRATE_ON_START", "HTTP_ADDR"} {
		t.Setenv(k, "")
	}
	cfg := loadConfig()
	if cfg.OrdersTable != "orders" {
		t.Fatalf("expected default orders table, got %q", cfg.OrdersTable)
	}
	if cfg.CartTTL != cart.DefaultTTL {
		t.Fatalf("expected default cart ttl, got %v", cfg.CartTTL)
	}
	if cfg.RunLocal || !cfg.MigrateOnStart {
		t.Fatalf("unexpected flags: run_local=%v migrate=%v", cfg.RunLocal, cfg.MigrateOnStart)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("expected :8080, got %q", cfg.HTTPAddr)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("ORDERS_TABLE", "fruit-orders")
	t.Setenv("CART_TTL", "2h")
	t.Setenv("RUN_LOCAL", "true")
	t.Setenv("MIGRATE_ON_START", "false")

	cfg := loadConfig()
	if cfg.OrdersTable != "fruit-orders" {
		t.Fatalf("got %q", cfg.OrdersTable)
	}
	if cfg.CartTTL != 2*time.Hour {
		t.Fatalf("got %v", cfg.CartTTL)
	}
	if !cfg.RunLocal || cfg.MigrateOnStart {
		t.Fatalf("unexpected flags: run_local=%v migrate=%v", cfg.RunLocal, cfg.MigrateOnStart)
	}
}

func TestLoadConfig_BadValuesFallBack(t *testing.T) {
	t.Setenv("CART_TTL", "forever")
	t.Setenv("RUN_LOCAL", "maybe")

	cfg := loadConfig()
	if cfg.CartTTL != cart.DefaultTTL {
		t.Fatalf("got %v", cfg.CartTTL)
	}
	if cfg.RunLocal {
		t.Fatal("expected RUN_LOCAL to fall back to false")
	}
}
