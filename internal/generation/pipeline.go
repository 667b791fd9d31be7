package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/mockview-api/internal/platform/logger"
)

// State is the position of one pipeline attempt in its state machine.
type State string

// Per-attempt states. PARSE_FAILED and INVALID retry from PENDING until the
// attempt budget is spent, after which the invocation ends in FAILED.
const (
	StatePending     State = "PENDING"
	StateParsed      State = "PARSED"
	StateParseFailed State = "PARSE_FAILED"
	StateValid       State = "VALID"
	StateInvalid     State = "INVALID"
	StateFailed      State = "FAILED"
)

// DefaultMaxAttempts is used when InvokeValidated is called with a
// non-positive attempt budget.
const DefaultMaxAttempts = 3

// Validator describes how raw model text becomes a checked JSON document.
type Validator struct {
	// Name identifies the validator in logs.
	Name string

	// Extract pulls the candidate document out of the raw reply.
	// Defaults to FirstObject.
	Extract func(raw string) (json.RawMessage, error)

	// Check validates the extracted document. A nil Check accepts any
	// well-formed document.
	Check func(doc json.RawMessage) error
}

// Pipeline wraps a ChatCompleter with parse, validate and bounded retry.
// It holds no state between invocations and is safe for concurrent use.
type Pipeline struct {
	producer ChatCompleter
	logger   *slog.Logger
}

// NewPipeline creates a Pipeline around producer.
func NewPipeline(producer ChatCompleter, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		producer: producer,
		logger:   logger.With("component", "validated_pipeline"),
	}
}

// InvokeValidated calls the producer up to maxAttempts times and returns the
// first extracted document that passes v. A producer error consumes an
// attempt just like unparseable output. When the budget is spent the error
// wraps ErrValidationExhausted and the last underlying failure.
func (p *Pipeline) InvokeValidated(
	ctx context.Context,
	prompt string,
	v Validator,
	maxAttempts int,
) (json.RawMessage, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	extract := v.Extract
	if extract == nil {
		extract = FirstObject
	}

	log := logger.FromContextOrDefault(ctx, p.logger).With("validator", v.Name)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, trail, err := p.attempt(ctx, prompt, extract, v.Check)
		state := trail[len(trail)-1]
		if state == StateValid {
			if attempt > 1 {
				log.DebugContext(ctx, "validated output accepted after retry", "attempt", attempt)
			}
			return doc, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}

		lastErr = err
		log.WarnContext(ctx, "structured output rejected",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"state", state,
			"trail", trail,
			"error", err)
	}

	log.ErrorContext(ctx, "structured output validation exhausted",
		"state", StateFailed,
		"attempts", maxAttempts,
		"error", lastErr)
	return nil, fmt.Errorf("%w: %d attempts: %w", ErrValidationExhausted, maxAttempts, lastErr)
}

// attempt runs one PENDING -> PARSED|PARSE_FAILED -> VALID|INVALID pass and
// returns the states it visited. A producer failure leaves the attempt in
// PENDING.
func (p *Pipeline) attempt(
	ctx context.Context,
	prompt string,
	extract func(string) (json.RawMessage, error),
	check func(json.RawMessage) error,
) (json.RawMessage, []State, error) {
	trail := []State{StatePending}
	raw, err := p.producer.Complete(ctx, prompt)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, trail, ctxErr
		}
		return nil, trail, fmt.Errorf("%w: %w", ErrProducerFailure, err)
	}

	doc, err := extract(raw)
	if err != nil {
		return nil, append(trail, StateParseFailed), err
	}
	trail = append(trail, StateParsed)

	if check != nil {
		if err := check(doc); err != nil {
			return nil, append(trail, StateInvalid), err
		}
	}
	return doc, append(trail, StateValid), nil
}

// InvokeInto runs InvokeValidated and decodes the accepted document into T.
func InvokeInto[T any](
	ctx context.Context,
	p *Pipeline,
	prompt string,
	v Validator,
	maxAttempts int,
) (T, error) {
	var out T
	doc, err := p.InvokeValidated(ctx, prompt, v, maxAttempts)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(doc, &out); err != nil {
		return out, fmt.Errorf("%w: decode %T: %w", ErrInvalidResponse, out, err)
	}
	return out, nil
}
