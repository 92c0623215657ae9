package internal

import (
	"strings"
	"testing"

	"github.com/chhoumann/quickadd-sub002/internal/index"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestHTTPConfig_PortBounds(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := HTTPConfig{Port: port}
		if err := cfg.Validate(); err == nil {
			t.Errorf("port %d should fail validation", port)
		}
	}
	cfg := HTTPConfig{Port: 8080}
	if err := cfg.Validate(); err != nil {
		t.Errorf("port 8080 should pass: %v", err)
	}
	if cfg.Address() != ":8080" {
		t.Errorf("Address() = %q", cfg.Address())
	}
}

func TestIndexConfig_RejectsNegativeTuning(t *testing.T) {
	cfg := IndexConfig{DebounceMS: -1}
	if err := cfg.Validate(); err == nil {
		t.Error("negative debounce should fail")
	}
	cfg = IndexConfig{MaxPending: -5}
	if err := cfg.Validate(); err == nil {
		t.Error("negative max_pending should fail")
	}
	cfg = IndexConfig{}
	if err := cfg.Validate(); err != nil {
		t.Errorf("zero values should pass (defaults apply): %v", err)
	}
}

func TestIndexConfig_WeightsPassThrough(t *testing.T) {
	w := index.DefaultRankWeights()
	w.SameFolderBoost = -120
	cfg := IndexConfig{Weights: &w}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("weights should pass: %v", err)
	}
	if cfg.Weights.SameFolderBoost != -120 {
		t.Errorf("weights not preserved: %+v", cfg.Weights)
	}
}

func TestFullConfig_ValidatesAllSections(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}

	cfg = NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	if err := cfg.Validate(); err == nil {
		t.Error("auth section errors should propagate")
	}

	cfg = NewDefaultConfig()
	cfg.Vault.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Error("vault section errors should propagate")
	}

	cfg = NewDefaultConfig()
	cfg.Index.BatchSize = -1
	if err := cfg.Validate(); err == nil {
		t.Error("index section errors should propagate")
	}
}
