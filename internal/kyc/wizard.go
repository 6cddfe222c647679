// Package kyc drives the three-step identity verification wizard:
// documents, face capture, then a one-time code.
package kyc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ramiqadoumi/go-earn-flow/internal/domain"
	"github.com/ramiqadoumi/go-earn-flow/pkg/telemetry"
)

// Step is a wizard position.
type Step string

const (
	StepDocuments Step = "documents"
	StepFace      Step = "face"
	StepOTP       Step = "otp"
	StepDone      Step = "done"
)

// ErrVerificationInProgress is returned when a face capture is submitted
// while another one is still being verified.
var ErrVerificationInProgress = errors.New("face verification already in progress")

// Profile receives the verification flags.
type Profile interface {
	MarkFaceVerified()
	MarkKycVerified()
	Mobile() string
}

// Notifier is told when KYC is approved.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

// State is a wizard snapshot.
type State struct {
	Step      Step `json:"step"`
	OTPSent   bool `json:"otp_sent"`
	Verifying bool `json:"verifying"`
}

// Wizard is safe for concurrent use.
type Wizard struct {
	provider Provider
	profile  Profile
	notifier Notifier
	logger   *slog.Logger

	mu        sync.Mutex
	step      Step
	otpSent   bool
	verifying bool
}

// NewWizard starts a wizard at the documents step.
func NewWizard(provider Provider, profile Profile, notifier Notifier, logger *slog.Logger) *Wizard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Wizard{
		provider: provider,
		profile:  profile,
		notifier: notifier,
		logger:   logger,
		step:     StepDocuments,
	}
}

// State returns the current position.
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return State{Step: w.step, OTPSent: w.otpSent, Verifying: w.verifying}
}

// SubmitDocuments accepts the document upload and moves to face capture.
func (w *Wizard) SubmitDocuments(context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.expect(StepDocuments); err != nil {
		telemetry.KYCSteps.WithLabelValues(string(StepDocuments), "out_of_order").Inc()
		return err
	}
	w.step = StepFace
	telemetry.KYCSteps.WithLabelValues(string(StepDocuments), "ok").Inc()
	w.logger.Info("kyc documents submitted")
	return nil
}

// SubmitFace sends the capture to the provider. An approval marks the profile
// face-verified and moves to the OTP step; a rejection stays on this step.
func (w *Wizard) SubmitFace(ctx context.Context, image []byte) (Result, error) {
	w.mu.Lock()
	if err := w.expect(StepFace); err != nil {
		w.mu.Unlock()
		telemetry.KYCSteps.WithLabelValues(string(StepFace), "out_of_order").Inc()
		return Result{}, err
	}
	if w.verifying {
		w.mu.Unlock()
		return Result{}, ErrVerificationInProgress
	}
	w.verifying = true
	w.mu.Unlock()

	res, err := w.provider.SubmitFace(ctx, image)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.verifying = false
	if err != nil {
		telemetry.KYCSteps.WithLabelValues(string(StepFace), "error").Inc()
		return Result{}, fmt.Errorf("submit face: %w", err)
	}
	if !res.Approved {
		telemetry.KYCSteps.WithLabelValues(string(StepFace), "rejected").Inc()
		w.logger.Info("kyc face rejected", slog.String("reason", res.Reason))
		return res, nil
	}
	w.profile.MarkFaceVerified()
	w.step = StepOTP
	telemetry.KYCSteps.WithLabelValues(string(StepFace), "ok").Inc()
	w.logger.Info("kyc face verified")
	return res, nil
}

// SendOTP asks the provider to send a code to the profile's mobile number.
func (w *Wizard) SendOTP(ctx context.Context) error {
	w.mu.Lock()
	if err := w.expect(StepOTP); err != nil {
		w.mu.Unlock()
		return err
	}
	w.mu.Unlock()

	if err := w.provider.SendCode(ctx, w.profile.Mobile()); err != nil {
		return fmt.Errorf("send otp: %w", err)
	}

	w.mu.Lock()
	w.otpSent = true
	w.mu.Unlock()
	w.logger.Info("kyc otp sent")
	return nil
}

// VerifyOTP checks code. A match marks the profile KYC-verified and finishes
// the wizard; a mismatch returns *domain.InvalidOTPError.
func (w *Wizard) VerifyOTP(ctx context.Context, code string) error {
	w.mu.Lock()
	if err := w.expect(StepOTP); err != nil {
		w.mu.Unlock()
		telemetry.KYCSteps.WithLabelValues(string(StepOTP), "out_of_order").Inc()
		return err
	}
	if !w.otpSent {
		w.mu.Unlock()
		return &domain.InvalidStepError{Want: "verify otp", Got: "otp not sent"}
	}
	w.mu.Unlock()

	ok, err := w.provider.VerifyCode(ctx, code)
	if err != nil {
		telemetry.KYCSteps.WithLabelValues(string(StepOTP), "error").Inc()
		return fmt.Errorf("verify otp: %w", err)
	}
	if !ok {
		telemetry.KYCSteps.WithLabelValues(string(StepOTP), "rejected").Inc()
		return &domain.InvalidOTPError{}
	}

	w.mu.Lock()
	if w.step != StepOTP {
		// A concurrent verify already finished the wizard.
		w.mu.Unlock()
		return nil
	}
	w.step = StepDone
	w.mu.Unlock()

	w.profile.MarkKycVerified()
	telemetry.KYCSteps.WithLabelValues(string(StepOTP), "ok").Inc()
	w.logger.Info("kyc approved")
	if w.notifier != nil {
		w.notifier.Notify(ctx, domain.Notification{
			Kind:    domain.NotificationKycApproved,
			Message: "KYC Approved!",
		})
	}
	return nil
}

// expect must be called with w.mu held.
func (w *Wizard) expect(want Step) error {
	if w.step != want {
		return &domain.InvalidStepError{Want: string(want), Got: string(w.step)}
	}
	return nil
}
