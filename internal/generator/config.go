package generator

import "time"

// Config controls the behavior of the LLMGenerator.
type Config struct {
	// Validators run in order on every decoded payload; the first failure
	// stops the pipeline.
	Validators []Validator `yaml:"-"`

	// Language is the language being practised.
	Language string `yaml:"language"`

	// Timeout bounds a single Generate call end to end.
	Timeout time.Duration `yaml:"timeout"`

	// MaxTokens is the token budget for the backend response.
	MaxTokens int `yaml:"max_tokens"`

	// Temperature controls output randomness (0.0-1.0).
	Temperature float64 `yaml:"temperature"`

	// MaxTopicHints caps how many hints reach the prompt.
	MaxTopicHints int `yaml:"max_topic_hints"`

	Breaker  BreakerConfig  `yaml:"breaker"`
	Bulkhead BulkheadConfig `yaml:"bulkhead"`
}

// BreakerConfig configures the circuit breaker around the backend.
type BreakerConfig struct {
	// ConsecutiveFailures trips the breaker open.
	ConsecutiveFailures int `yaml:"consecutive_failures"`

	// OpenTimeout is how long the breaker stays open before a single
	// probe request is let through.
	OpenTimeout time.Duration `yaml:"open_timeout"`

	// Interval clears the failure counts while closed.
	Interval time.Duration `yaml:"interval"`
}

// BulkheadConfig limits concurrent backend calls.
type BulkheadConfig struct {
	MaxConcurrent int           `yaml:"max_concurrent"`
	MaxQueue      int           `yaml:"max_queue"`
	QueueTimeout  time.Duration `yaml:"queue_timeout"`
}

// DefaultConfig returns a Config with the structural validator and
// recommended defaults.
func DefaultConfig() Config {
	return Config{
		Validators:    []Validator{&StructuralValidator{}},
		Language:      "English",
		Timeout:       8 * time.Second,
		MaxTokens:     2048,
		Temperature:   0.8,
		MaxTopicHints: 5,
		Breaker: BreakerConfig{
			ConsecutiveFailures: 3,
			OpenTimeout:         60 * time.Second,
			Interval:            10 * time.Second,
		},
		Bulkhead: BulkheadConfig{
			MaxConcurrent: 4,
			MaxQueue:      8,
			QueueTimeout:  2 * time.Second,
		},
	}
}
