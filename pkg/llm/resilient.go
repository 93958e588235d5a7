package llm

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// ResilientProvider bounds every attempt with a timeout and retries
// transient failures with exponential backoff.
type ResilientProvider struct {
	inner      LLMProvider
	timeout    time.Duration
	maxRetries int
	newBackOff func() backoff.BackOff
}

var _ LLMProvider = &ResilientProvider{}

func NewResilientProvider(inner LLMProvider, timeout time.Duration, maxRetries int) *ResilientProvider {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &ResilientProvider{
		inner:      inner,
		timeout:    timeout,
		maxRetries: maxRetries,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			return b
		},
	}
}

func (r *ResilientProvider) Chat(ctx context.Context, history []Message, opts ...Option) (string, error) {
	return backoff.Retry(ctx, func() (string, error) {
		reply, err := r.attempt(ctx, history, opts)
		if err == nil {
			return reply, nil
		}
		// The caller gave up; another attempt cannot help.
		if ctx.Err() != nil || !IsRetryable(err) {
			return "", backoff.Permanent(err)
		}
		return "", err
	},
		backoff.WithBackOff(r.newBackOff()),
		backoff.WithMaxTries(uint(r.maxRetries+1)),
	)
}

func (r *ResilientProvider) attempt(ctx context.Context, history []Message, opts []Option) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	reply, err := r.inner.Chat(ctx, history, opts...)
	if err != nil {
		return "", err
	}
	if reply == "" {
		return "", ErrEmptyResponse
	}
	return reply, nil
}

func (r *ResilientProvider) Generate(ctx context.Context, prompt string, opts ...Option) (string, error) {
	return r.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, opts...)
}

// IsTimeout reports whether err came from an attempt running out of time.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
