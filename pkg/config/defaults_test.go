package config

import (
	"testing"
)

func TestDefaultPlannerConfig(t *testing.T) {
	config := DefaultPlannerConfig()

	if config.MaxRearrangeItems != 3 {
		t.Errorf("Expected MaxRearrangeItems 3, got %d", config.MaxRearrangeItems)
	}

	if config.MaxRearrangeCandidates < config.MaxRearrangeItems {
		t.Error("MaxRearrangeCandidates must admit at least MaxRearrangeItems candidates")
	}
}

func TestDefaultReturnConfig(t *testing.T) {
	config := DefaultReturnConfig()

	if config.MaxReturnMass != 10000.0 {
		t.Errorf("Expected MaxReturnMass 10000.0, got %f", config.MaxReturnMass)
	}
}

func TestDefault(t *testing.T) {
	config := Default()

	if config.State.URL != DefaultStateURL {
		t.Errorf("Expected state url %q, got %q", DefaultStateURL, config.State.URL)
	}
	if config.Log.Level != "info" {
		t.Errorf("Expected log level info, got %q", config.Log.Level)
	}
}
