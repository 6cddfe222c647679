package kyc

import (
	"context"
	"time"
)

// Result is the outcome of a face verification.
type Result struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason,omitempty"`
}

// Provider is the verification backend the wizard talks to.
type Provider interface {
	SubmitFace(ctx context.Context, image []byte) (Result, error)
	SendCode(ctx context.Context, mobile string) error
	VerifyCode(ctx context.Context, code string) (bool, error)
}

const (
	DefaultMockDelay = 2 * time.Second
	DefaultMockCode  = "1234"
)

// MockProvider approves any non-empty capture after Delay and accepts only
// Code. It never contacts anything.
type MockProvider struct {
	Delay time.Duration
	Code  string
}

// NewMockProvider returns a MockProvider with the default delay and code.
func NewMockProvider() *MockProvider {
	return &MockProvider{Delay: DefaultMockDelay, Code: DefaultMockCode}
}

func (p *MockProvider) SubmitFace(ctx context.Context, image []byte) (Result, error) {
	if p.Delay > 0 {
		t := time.NewTimer(p.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}
	if len(image) == 0 {
		return Result{Approved: false, Reason: "empty capture"}, nil
	}
	return Result{Approved: true}, nil
}

func (p *MockProvider) SendCode(context.Context, string) error { return nil }

func (p *MockProvider) VerifyCode(_ context.Context, code string) (bool, error) {
	return code == p.Code, nil
}
