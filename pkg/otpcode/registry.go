package otpcode

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// Registry issues and consumes short-lived single-use numeric codes. It is
// the single implementation shared by every call site: login OTP, password
// reset, and admin step-up all go through the same code paths, parameterized
// only by purpose and TTL.
type Registry struct {
	store  Store
	config Config
	logger *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets a custom logger for the registry.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithStore sets a custom backing store.
func WithStore(store Store) Option {
	return func(r *Registry) {
		r.store = store
	}
}

// New creates a Registry. Without WithStore it falls back to an in-process
// memory store, which is only suitable for single-instance deployments.
func New(cfg Config, opts ...Option) *Registry {
	r := &Registry{
		config: cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.store == nil {
		r.store = NewMemoryStore(cfg.CleanupInterval)
	}
	return r
}

// Issue generates a fresh code and handle for the given email and purpose.
// Issuing implicitly invalidates any outstanding handle for the same
// (email, purpose), preventing stale-code reuse across concurrent attempts.
// The returned code is handed to the email-delivery collaborator only; it is
// never persisted in logs or retrievable afterwards.
func (r *Registry) Issue(ctx context.Context, email string, purpose Purpose) (Challenge, error) {
	code, err := generateCode()
	if err != nil {
		return Challenge{}, fmt.Errorf("failed to generate code: %w", err)
	}

	entry := Entry{
		Handle:    uuid.NewString(),
		Code:      code,
		Email:     email,
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(r.config.TTL(purpose)),
	}

	if err := r.store.Put(ctx, entry); err != nil {
		return Challenge{}, fmt.Errorf("failed to store code: %w", err)
	}

	r.logger.InfoContext(ctx, "one-time code issued",
		slog.String("component", "otpcode"),
		slog.String("purpose", string(purpose)),
		slog.String("code", MaskCode(code)),
	)

	return Challenge{
		Handle:    entry.Handle,
		Code:      code,
		Email:     email,
		Purpose:   purpose,
		ExpiresAt: entry.ExpiresAt,
	}, nil
}

// Consume attempts to redeem a handle with the supplied code. Exactly one of
// any number of concurrent calls with the correct code observes
// OutcomeSuccess; the rest see OutcomeInvalidOrExpired. Errors are reserved
// for store failures; every expected condition is an Outcome.
func (r *Registry) Consume(ctx context.Context, handle, code string) (Result, error) {
	result, err := r.store.Consume(ctx, handle, code, time.Now())
	if err != nil {
		return Result{}, fmt.Errorf("failed to consume code: %w", err)
	}

	if result.Outcome != OutcomeSuccess {
		r.logger.InfoContext(ctx, "one-time code rejected",
			slog.String("component", "otpcode"),
			slog.String("outcome", string(result.Outcome)),
			slog.String("code", MaskCode(code)),
		)
	}

	return result, nil
}

// Sweep removes expired entries. Memory stores run this on their own ticker;
// external stores with native TTLs can treat it as a no-op.
func (r *Registry) Sweep(ctx context.Context) error {
	return r.store.DeleteExpired(ctx, time.Now())
}

var codeModulus = big.NewInt(1_000_000)

// generateCode produces a uniformly random 6-digit code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeModulus)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
