// Package policy holds the guard rails around planning: static return limits and
// dynamic CEL admission rules.
package policy

import (
	"fmt"

	"github.com/DrSkyle/stowage/pkg/cargo"
	"github.com/DrSkyle/stowage/pkg/config"
)

// Policy defines the hard constraints for return planning.
type Policy struct {
	Config config.ReturnConfig
}

// DefaultPolicy returns a safe baseline.
func DefaultPolicy() Policy {
	return Policy{
		Config: config.DefaultReturnConfig(),
	}
}

// Validator checks if a proposed action adheres to the policy.
type Validator struct {
	P Policy
}

func NewValidator(p Policy) *Validator {
	return &Validator{P: p}
}

// ValidateReturn checks a requested weight budget.
func (v *Validator) ValidateReturn(maxWeight float64) error {
	if maxWeight <= 0 {
		return fmt.Errorf("%w: max weight must be positive, got %.2f", cargo.ErrInvalidInput, maxWeight)
	}
	if limit := v.P.Config.MaxReturnMass; limit > 0 && maxWeight > limit {
		return fmt.Errorf("%w: max weight %.2f exceeds return limit %.2f", cargo.ErrInvalidInput, maxWeight, limit)
	}
	return nil
}
