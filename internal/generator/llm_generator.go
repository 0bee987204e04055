package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"

	"github.com/abhisek/lingua/internal/content"
	"github.com/abhisek/lingua/internal/llm"
	"github.com/abhisek/lingua/internal/logger"
)

// Purpose labels generation calls in the LLM event log.
const Purpose = "content-gen"

// LLMGenerator implements Generator on top of an llm.Provider. Calls go
// through a bulkhead and a circuit breaker.
type LLMGenerator struct {
	provider llm.Provider
	catalog  content.Catalog
	config   Config
	log      *logger.Logger
	breaker  circuitbreaker.CircuitBreaker[*llm.Response]
	bulkhead bulkhead.Bulkhead[*llm.Response]
}

// New creates an LLMGenerator.
func New(provider llm.Provider, catalog content.Catalog, cfg Config, log *logger.Logger) *LLMGenerator {
	if log == nil {
		log = logger.Nop()
	}
	g := &LLMGenerator{
		provider: provider,
		catalog:  catalog,
		config:   cfg,
		log:      log,
	}

	failures := cfg.Breaker.ConsecutiveFailures
	if failures <= 0 {
		failures = 3
	}
	g.breaker = circuitbreaker.New[*llm.Response](circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.OpenTimeout,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return int(counts.ConsecutiveFailures) >= failures
		},
		OnStateChange: func(from, to circuitbreaker.State) {
			g.log.Warn("generation circuit breaker state change",
				"provider", provider.Name(),
				"from", from.String(),
				"to", to.String())
		},
	})

	maxConcurrent := cfg.Bulkhead.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	g.bulkhead = bulkhead.New[*llm.Response](bulkhead.Config{
		MaxConcurrent: maxConcurrent,
		MaxQueue:      cfg.Bulkhead.MaxQueue,
		QueueTimeout:  cfg.Bulkhead.QueueTimeout,
	})

	return g
}

// Generate produces one validated payload.
func (g *LLMGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	kind, err := g.catalog.Kind(req.ExerciseType)
	if err != nil {
		return nil, err
	}
	if !req.Band.Valid() {
		return nil, fmt.Errorf("generate %s: invalid band %q", req.ExerciseType, req.Band)
	}
	schema, err := SchemaFor(kind)
	if err != nil {
		return nil, err
	}

	ctx = llm.WithPurpose(ctx, Purpose)
	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	llmReq := llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(req, kind, g.config)},
		},
		Schema:      schema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	// A backend that answered with a malformed payload is healthy; only
	// upstream failures count against the breaker.
	var payloadErr error
	start := time.Now()
	resp, err := g.breaker.Execute(ctx, func(ctx context.Context) (*llm.Response, error) {
		r, err := g.bulkhead.Execute(ctx, func(ctx context.Context) (*llm.Response, error) {
			return g.provider.Generate(ctx, llmReq)
		})
		if isPayloadError(err) {
			payloadErr = err
			return nil, nil
		}
		return r, err
	})
	latency := time.Since(start)
	if payloadErr != nil {
		err = payloadErr
	}
	if err != nil {
		return nil, classify(err, req.ExerciseType, g.provider.Name(), g.config.Timeout)
	}

	payload, err := content.DecodePayload(kind, resp.Content)
	if err != nil {
		return nil, &SchemaInvalidError{ExerciseType: req.ExerciseType, Err: err}
	}
	for _, v := range g.config.Validators {
		if verr := v.Validate(payload, req); verr != nil {
			return nil, &SchemaInvalidError{ExerciseType: req.ExerciseType, Err: verr}
		}
	}

	g.log.Debug("content generated",
		"skill", req.SkillArea,
		"type", req.ExerciseType,
		"band", req.Band,
		"model", resp.Model,
		"latency_ms", latency.Milliseconds())

	return &Result{
		Kind:    kind,
		Payload: payload,
		Meta: content.GenerationMeta{
			Provider:      g.provider.Name(),
			Model:         resp.Model,
			SchemaVersion: SchemaVersion,
			Latency:       latency,
		},
	}, nil
}
