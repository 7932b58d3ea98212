package config

import (
	"testing"
	"time"
)

func TestPrefixComposition(t *testing.T) {
	t.Setenv("GW_SERVE_PORT", "4100")

	c := New().Prefix("GW_").Prefix("SERVE_")
	if got := c.MayString("PORT", ""); got != "4100" {
		t.Fatalf("prefixed lookup = %q, want 4100", got)
	}
}

func TestMayDefaults(t *testing.T) {
	c := New().Prefix("GWDATA_TEST_")

	if got := c.MayString("MISSING", "fallback"); got != "fallback" {
		t.Fatalf("MayString default = %q", got)
	}
	if got := c.MayInt("MISSING", 7); got != 7 {
		t.Fatalf("MayInt default = %d", got)
	}
	if got := c.MayBool("MISSING", true); !got {
		t.Fatalf("MayBool default = %v", got)
	}
	if got := c.MayDuration("MISSING", 3*time.Second); got != 3*time.Second {
		t.Fatalf("MayDuration default = %v", got)
	}
}

func TestMayInvalidFallsBack(t *testing.T) {
	t.Setenv("GWDATA_TEST_WORKERS", "not-a-number")
	t.Setenv("GWDATA_TEST_TIMEOUT", "soon")

	c := New().Prefix("GWDATA_TEST_")
	if got := c.MayInt("WORKERS", 2); got != 2 {
		t.Fatalf("invalid int should fall back, got %d", got)
	}
	if got := c.MayDuration("TIMEOUT", time.Minute); got != time.Minute {
		t.Fatalf("invalid duration should fall back, got %v", got)
	}
}

func TestMustPort(t *testing.T) {
	t.Setenv("GWDATA_TEST_PORT", "4000")
	c := New().Prefix("GWDATA_TEST_")
	if got := c.MustPort("PORT"); got != ":4000" {
		t.Fatalf("MustPort = %q", got)
	}
}
