package policy

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/google/cel-go/cel"
	"gopkg.in/yaml.v3"

	"github.com/DrSkyle/stowage/pkg/cargo"
)

// Rule actions.
const (
	ActionBlock = "block"
	ActionWarn  = "warn"
)

// DynamicRule represents a user-defined admission rule (e.g. from YAML).
type DynamicRule struct {
	ID        string `json:"id" yaml:"id"`
	Condition string `json:"condition" yaml:"condition"` // CEL expression: "mass > 50.0 && zone == 'Crew Quarters'"
	Action    string `json:"action" yaml:"action"`       // "block" or "warn"
}

// Match is a rule that evaluated true.
type Match struct {
	ID     string
	Action string
}

// EvaluationContext is the item/container pair a rule sees.
type EvaluationContext struct {
	ItemID        string
	Name          string
	Priority      int
	Mass          float64
	Volume        float64
	PreferredZone string
	ContainerID   string
	Zone          string
}

// NewEvaluationContext builds the rule input for placing it in c.
func NewEvaluationContext(it cargo.Item, c cargo.Container) EvaluationContext {
	return EvaluationContext{
		ItemID:        it.ID,
		Name:          it.Name,
		Priority:      it.Priority,
		Mass:          it.Mass,
		Volume:        it.Volume(),
		PreferredZone: it.PreferredZone,
		ContainerID:   c.ID,
		Zone:          c.Zone,
	}
}

func (c EvaluationContext) vars() map[string]interface{} {
	return map[string]interface{}{
		"item_id":        c.ItemID,
		"name":           c.Name,
		"priority":       int64(c.Priority),
		"mass":           c.Mass,
		"volume":         c.Volume,
		"preferred_zone": c.PreferredZone,
		"container_id":   c.ContainerID,
		"zone":           c.Zone,
	}
}

// CELEngine manages the compilation and execution of dynamic rules.
type CELEngine struct {
	env      *cel.Env
	programs map[string]cel.Program
	actions  map[string]string
	order    []string
	logger   *slog.Logger
}

// NewCELEngine initializes the CEL environment with the stowage variable declarations.
func NewCELEngine() (*CELEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("item_id", cel.StringType),
		cel.Variable("name", cel.StringType),
		cel.Variable("priority", cel.IntType),
		cel.Variable("mass", cel.DoubleType),
		cel.Variable("volume", cel.DoubleType),
		cel.Variable("preferred_zone", cel.StringType),
		cel.Variable("container_id", cel.StringType),
		cel.Variable("zone", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}

	return &CELEngine{
		env:      env,
		programs: make(map[string]cel.Program),
		actions:  make(map[string]string),
		logger:   slog.Default(),
	}, nil
}

// Compile compiles a list of rules into executable programs.
func (e *CELEngine) Compile(rules []DynamicRule) error {
	for _, r := range rules {
		if r.Action != ActionBlock && r.Action != ActionWarn {
			return fmt.Errorf("%w: rule %s has unknown action %q", cargo.ErrInvalidInput, r.ID, r.Action)
		}
		ast, issues := e.env.Compile(r.Condition)
		if issues != nil && issues.Err() != nil {
			return fmt.Errorf("rule %s compilation error: %w", r.ID, issues.Err())
		}
		if ast.OutputType() != cel.BoolType {
			return fmt.Errorf("%w: rule %s must evaluate to bool", cargo.ErrInvalidInput, r.ID)
		}

		prg, err := e.env.Program(ast)
		if err != nil {
			return fmt.Errorf("rule %s program creation error: %w", r.ID, err)
		}

		if _, dup := e.programs[r.ID]; !dup {
			e.order = append(e.order, r.ID)
		}
		e.programs[r.ID] = prg
		e.actions[r.ID] = r.Action
	}
	sort.Strings(e.order)
	return nil
}

// Evaluate returns the rules that match, ordered by rule ID.
func (e *CELEngine) Evaluate(ctx context.Context, data EvaluationContext) ([]Match, error) {
	var matches []Match
	vars := data.vars()

	for _, id := range e.order {
		out, _, err := e.programs[id].ContextEval(ctx, vars)
		if err != nil {
			e.logger.Error("Rule evaluation failed", "rule_id", id, "error", err)
			continue
		}

		if match, ok := out.Value().(bool); ok && match {
			matches = append(matches, Match{ID: id, Action: e.actions[id]})
		}
	}

	return matches, nil
}

// Admit reports whether no block rule forbids placing it in c. Warn rules are logged.
func (e *CELEngine) Admit(ctx context.Context, it cargo.Item, c cargo.Container) bool {
	matches, _ := e.Evaluate(ctx, NewEvaluationContext(it, c))
	allowed := true
	for _, m := range matches {
		switch m.Action {
		case ActionBlock:
			allowed = false
			e.logger.Debug("Placement blocked by rule", "rule_id", m.ID, "item", it.ID, "container", c.ID)
		case ActionWarn:
			e.logger.Warn("Placement rule warning", "rule_id", m.ID, "item", it.ID, "container", c.ID)
		}
	}
	return allowed
}

// Len is the number of compiled rules.
func (e *CELEngine) Len() int {
	return len(e.order)
}

// LoadRules reads a YAML list of rules.
func LoadRules(path string) ([]DynamicRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}
	var rules []DynamicRule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	return rules, nil
}
