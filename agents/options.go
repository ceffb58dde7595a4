package agents

import (
	"fmt"
	"time"
)

// Config is the orchestration configuration surface.
//
// The zero value is not valid; start from DefaultConfig and adjust
// through Options.
type Config struct {
	// SelectedAnalysts is the ordered set of enabled analyst
	// categories. Order is the pipeline order; it must not contain
	// duplicates or unknown categories. Empty disables the analysis
	// phase entirely.
	SelectedAnalysts []string

	// MaxDebateRounds bounds the bull/bear research debate.
	MaxDebateRounds int

	// MaxRiskRounds bounds the risky/safe/neutral risk debate.
	MaxRiskRounds int

	// MaxSteps bounds total stage transitions per run. Exceeding it
	// fails the run with ErrMaxStepsExceeded.
	MaxSteps int

	// Streaming enables per-stage state_update events. Observational
	// only; the terminal state is identical either way.
	Streaming bool

	// MemoryEnabled controls whether debate and judgment stages
	// consult their memory stores.
	MemoryEnabled bool

	// MemoryTopK is the number of past situations recalled per query.
	MemoryTopK int

	// MaxToolCallsPerStage bounds tool invocations within one analyst
	// stage. At the bound the analyst must produce its report from the
	// transcript gathered so far.
	MaxToolCallsPerStage int

	// MaxModelRetries bounds retries of a failed model call before the
	// stage escalates with UpstreamError.
	MaxModelRetries int

	// ModelTimeout is the per-call deadline for model invocations.
	// Zero disables the per-call deadline.
	ModelTimeout time.Duration

	// RunLogDir, when non-empty, enables the per-instrument JSON run
	// log under this directory.
	RunLogDir string
}

// DefaultConfig returns the standard configuration: all four analysts,
// one debate round per panel.
func DefaultConfig() Config {
	return Config{
		SelectedAnalysts: []string{
			AnalystMarket, AnalystSocial, AnalystNews, AnalystFundamentals,
		},
		MaxDebateRounds:      1,
		MaxRiskRounds:        1,
		MaxSteps:             100,
		MemoryEnabled:        true,
		MemoryTopK:           2,
		MaxToolCallsPerStage: 5,
		MaxModelRetries:      3,
		ModelTimeout:         2 * time.Minute,
	}
}

// Validate reports the first configuration defect as a *ConfigError.
func (c Config) Validate() error {
	seen := make(map[string]bool, len(c.SelectedAnalysts))
	for _, category := range c.SelectedAnalysts {
		if !KnownAnalyst(category) {
			return &ConfigError{
				Field:  "SelectedAnalysts",
				Reason: fmt.Sprintf("unknown analyst category %q", category),
			}
		}
		if seen[category] {
			return &ConfigError{
				Field:  "SelectedAnalysts",
				Reason: fmt.Sprintf("duplicate analyst category %q", category),
			}
		}
		seen[category] = true
	}
	if c.MaxDebateRounds < 1 {
		return &ConfigError{Field: "MaxDebateRounds", Reason: "must be at least 1"}
	}
	if c.MaxRiskRounds < 1 {
		return &ConfigError{Field: "MaxRiskRounds", Reason: "must be at least 1"}
	}
	if c.MaxSteps < 1 {
		return &ConfigError{Field: "MaxSteps", Reason: "must be at least 1"}
	}
	if c.MemoryTopK < 0 {
		return &ConfigError{Field: "MemoryTopK", Reason: "cannot be negative"}
	}
	if c.MaxToolCallsPerStage < 0 {
		return &ConfigError{Field: "MaxToolCallsPerStage", Reason: "cannot be negative"}
	}
	if c.MaxModelRetries < 0 {
		return &ConfigError{Field: "MaxModelRetries", Reason: "cannot be negative"}
	}
	if c.ModelTimeout < 0 {
		return &ConfigError{Field: "ModelTimeout", Reason: "cannot be negative"}
	}
	return nil
}

// Option adjusts a Config.
type Option func(*Config) error

// WithAnalysts selects the enabled analyst categories in pipeline order.
func WithAnalysts(categories ...string) Option {
	return func(c *Config) error {
		for _, category := range categories {
			if !KnownAnalyst(category) {
				return &ConfigError{
					Field:  "SelectedAnalysts",
					Reason: fmt.Sprintf("unknown analyst category %q", category),
				}
			}
		}
		c.SelectedAnalysts = append([]string(nil), categories...)
		return nil
	}
}

// WithMaxDebateRounds bounds the bull/bear research debate.
func WithMaxDebateRounds(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return &ConfigError{Field: "MaxDebateRounds", Reason: "must be at least 1"}
		}
		c.MaxDebateRounds = n
		return nil
	}
}

// WithMaxRiskRounds bounds the risk-panel debate.
func WithMaxRiskRounds(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return &ConfigError{Field: "MaxRiskRounds", Reason: "must be at least 1"}
		}
		c.MaxRiskRounds = n
		return nil
	}
}

// WithMaxSteps bounds total stage transitions per run.
func WithMaxSteps(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return &ConfigError{Field: "MaxSteps", Reason: "must be at least 1"}
		}
		c.MaxSteps = n
		return nil
	}
}

// WithStreaming enables per-stage state_update events.
func WithStreaming(enabled bool) Option {
	return func(c *Config) error {
		c.Streaming = enabled
		return nil
	}
}

// WithMemory toggles memory recall during debates and judgments.
func WithMemory(enabled bool) Option {
	return func(c *Config) error {
		c.MemoryEnabled = enabled
		return nil
	}
}

// WithMemoryTopK sets the number of past situations recalled per query.
func WithMemoryTopK(k int) Option {
	return func(c *Config) error {
		if k < 0 {
			return &ConfigError{Field: "MemoryTopK", Reason: "cannot be negative"}
		}
		c.MemoryTopK = k
		return nil
	}
}

// WithMaxToolCallsPerStage bounds tool invocations per analyst stage.
func WithMaxToolCallsPerStage(n int) Option {
	return func(c *Config) error {
		if n < 0 {
			return &ConfigError{Field: "MaxToolCallsPerStage", Reason: "cannot be negative"}
		}
		c.MaxToolCallsPerStage = n
		return nil
	}
}

// WithMaxModelRetries bounds retries of failed model calls.
func WithMaxModelRetries(n int) Option {
	return func(c *Config) error {
		if n < 0 {
			return &ConfigError{Field: "MaxModelRetries", Reason: "cannot be negative"}
		}
		c.MaxModelRetries = n
		return nil
	}
}

// WithModelTimeout sets the per-call deadline for model invocations.
func WithModelTimeout(d time.Duration) Option {
	return func(c *Config) error {
		if d < 0 {
			return &ConfigError{Field: "ModelTimeout", Reason: "cannot be negative"}
		}
		c.ModelTimeout = d
		return nil
	}
}

// WithRunLogDir enables the per-instrument JSON run log.
func WithRunLogDir(dir string) Option {
	return func(c *Config) error {
		c.RunLogDir = dir
		return nil
	}
}
