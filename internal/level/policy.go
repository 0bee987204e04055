package level

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy holds the tunable leveling thresholds.
type Policy struct {
	// SuccessScore is the lowest score counted as a success.
	SuccessScore int `yaml:"success_score"`
	// FailureScore is the score below which an attempt is a failure.
	FailureScore int `yaml:"failure_score"`
	// PromoteStreak is the correct streak needed to move up.
	PromoteStreak int `yaml:"promote_streak"`
	// PromoteMinAttempts is the attempts_at_band needed before a promotion.
	PromoteMinAttempts int `yaml:"promote_min_attempts"`
	// DemoteStreak is the consecutive failures needed to move down.
	DemoteStreak int `yaml:"demote_streak"`
	// Step is how far one promotion or demotion moves the numeric level.
	Step float64 `yaml:"step"`
	// DefaultLevel is the numeric level of a newly created row.
	DefaultLevel float64 `yaml:"default_level"`
	// MaxRetries bounds compare-and-set attempts per update.
	MaxRetries int `yaml:"max_retries"`
}

// DefaultPolicy returns the standard thresholds.
func DefaultPolicy() Policy {
	return Policy{
		SuccessScore:       80,
		FailureScore:       50,
		PromoteStreak:      2,
		PromoteMinAttempts: 1,
		DemoteStreak:       2,
		Step:               0.5,
		DefaultLevel:       2.0,
		MaxRetries:         5,
	}
}

// Validate checks that the policy is internally consistent.
func (p Policy) Validate() error {
	var errs []error
	if p.FailureScore < 0 || p.SuccessScore > 100 || p.FailureScore > p.SuccessScore {
		errs = append(errs, fmt.Errorf("need 0 <= failure_score (%d) <= success_score (%d) <= 100", p.FailureScore, p.SuccessScore))
	}
	if p.PromoteStreak < 1 {
		errs = append(errs, errors.New("promote_streak must be at least 1"))
	}
	if p.DemoteStreak < 1 {
		errs = append(errs, errors.New("demote_streak must be at least 1"))
	}
	if p.PromoteMinAttempts < 0 {
		errs = append(errs, errors.New("promote_min_attempts must not be negative"))
	}
	if p.Step <= 0 || p.Step > MaxLevel-MinLevel {
		errs = append(errs, fmt.Errorf("step %.2f out of range", p.Step))
	}
	if p.DefaultLevel < MinLevel || p.DefaultLevel > MaxLevel {
		errs = append(errs, fmt.Errorf("default_level %.2f outside [%.1f, %.1f]", p.DefaultLevel, MinLevel, MaxLevel))
	}
	if p.MaxRetries < 1 {
		errs = append(errs, errors.New("max_retries must be at least 1"))
	}
	return errors.Join(errs...)
}

// LoadPolicy overlays the YAML policy file at path onto base. Fields absent
// from the file keep their base values.
func LoadPolicy(path string, base Policy) (Policy, error) {
	p := base
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read policy: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse policy: %w", err)
	}
	return p, p.Validate()
}
