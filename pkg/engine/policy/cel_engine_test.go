package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/DrSkyle/stowage/pkg/cargo"
)

func TestCELEngine(t *testing.T) {
	// 1. Initialize Engine
	engine, err := NewCELEngine()
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	// 2. Define Rules
	rules := []DynamicRule{
		{
			ID:        "heavy_in_quarters",
			Condition: "mass > 50.0 && zone == 'Crew Quarters'",
			Action:    ActionBlock,
		},
		{
			ID:        "critical_off_zone",
			Condition: "priority >= 90 && preferred_zone != zone",
			Action:    ActionWarn,
		},
	}

	// 3. Compile
	if err := engine.Compile(rules); err != nil {
		t.Fatalf("Compilation failed: %v", err)
	}

	ctx := context.Background()

	// 4. Scenario A: heavy item headed for crew quarters
	dataA := EvaluationContext{Mass: 80, Priority: 10, Zone: "Crew Quarters", PreferredZone: "Crew Quarters"}
	matches, _ := engine.Evaluate(ctx, dataA)
	if len(matches) != 1 || matches[0].ID != "heavy_in_quarters" {
		t.Errorf("Scenario A failed. Expected ['heavy_in_quarters'], got %v", matches)
	}

	// 5. Scenario B: both rules
	dataB := EvaluationContext{Mass: 80, Priority: 95, Zone: "Crew Quarters", PreferredZone: "Lab"}
	matches, _ = engine.Evaluate(ctx, dataB)
	if len(matches) != 2 || matches[0].ID != "critical_off_zone" || matches[1].ID != "heavy_in_quarters" {
		t.Errorf("Scenario B failed. Expected sorted matches, got %v", matches)
	}
}

func TestCELEngineAdmit(t *testing.T) {
	engine, err := NewCELEngine()
	if err != nil {
		t.Fatal(err)
	}
	if err := engine.Compile([]DynamicRule{{ID: "no_lab", Condition: "zone == 'Lab'", Action: ActionBlock}}); err != nil {
		t.Fatal(err)
	}

	item := cargo.Item{ID: "i1", Mass: 1, Priority: 5, Dimensions: cargo.Vec3{Width: 1, Depth: 1, Height: 1}}
	if engine.Admit(context.Background(), item, cargo.Container{ID: "c1", Zone: "Lab"}) {
		t.Error("Expected Lab container to be blocked")
	}
	if !engine.Admit(context.Background(), item, cargo.Container{ID: "c2", Zone: "Galley"}) {
		t.Error("Expected Galley container to be admitted")
	}
}

func TestCompileRejectsBadRules(t *testing.T) {
	cases := []DynamicRule{
		{ID: "syntax", Condition: "mass >", Action: ActionBlock},
		{ID: "not_bool", Condition: "mass + 1.0", Action: ActionBlock},
		{ID: "bad_action", Condition: "true", Action: "approve"},
	}
	for _, r := range cases {
		t.Run(r.ID, func(t *testing.T) {
			engine, err := NewCELEngine()
			if err != nil {
				t.Fatal(err)
			}
			if err := engine.Compile([]DynamicRule{r}); err == nil {
				t.Errorf("Expected compile error for rule %s", r.ID)
			}
		})
	}
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	body := "- id: heavy\n  condition: \"mass > 100.0\"\n  action: block\n"
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if len(rules) != 1 || rules[0].ID != "heavy" || rules[0].Action != ActionBlock {
		t.Errorf("Unexpected rules: %+v", rules)
	}
}

func TestValidateReturn(t *testing.T) {
	v := NewValidator(DefaultPolicy())
	if err := v.ValidateReturn(100); err != nil {
		t.Errorf("Expected 100 to pass, got %v", err)
	}
	if err := v.ValidateReturn(0); err == nil {
		t.Error("Expected zero budget to fail")
	}
	if err := v.ValidateReturn(20000); err == nil {
		t.Error("Expected budget over limit to fail")
	}
}
