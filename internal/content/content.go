// Package content generates short inspirational stories. Generation is a
// single attempt; every failure degrades to a fixed fallback text.
package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ramiqadoumi/go-earn-flow/pkg/telemetry"
)

// Language selects the language of the generated text.
type Language string

const (
	English Language = "English"
	Telugu  Language = "Telugu"
)

const (
	DefaultTopic = "Bhagavad Gita or Lord Krishna"

	FallbackEmpty = "Could not generate story at this time."
	FallbackError = "Network error. Please try again later."
)

// ErrUnknownLanguage is returned by ParseLanguage.
var ErrUnknownLanguage = errors.New("unknown language")

// ParseLanguage matches s case-insensitively. Empty means English.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "english", "en":
		return English, nil
	case "telugu", "te":
		return Telugu, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, s)
	}
}

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Story is a generated (or fallback) text.
type Story struct {
	Language Language `json:"language"`
	Topic    string   `json:"topic"`
	Text     string   `json:"text"`
	Fallback bool     `json:"fallback"`
}

// Service wraps a Generator with the prompt and fallback rules.
type Service struct {
	gen     Generator
	timeout time.Duration
	logger  *slog.Logger
}

// NewService returns a Service. timeout bounds a single generation call; zero
// means no extra bound beyond ctx.
func NewService(gen Generator, timeout time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gen: gen, timeout: timeout, logger: logger}
}

// Prompt builds the generation prompt.
func Prompt(lang Language, topic string) string {
	return fmt.Sprintf(`Tell me a short, inspiring story or explain a verse about %s.
The response must be in %s language.
Keep it under 200 words.
Make it easy to understand and morally uplifting.`, topic, lang)
}

// Generate never returns an error: failures come back as fallback text.
func (s *Service) Generate(ctx context.Context, lang Language, topic string) Story {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = DefaultTopic
	}
	story := Story{Language: lang, Topic: topic}

	ctx, span := otel.Tracer("content").Start(ctx, "content.generate")
	defer span.End()
	span.SetAttributes(attribute.String("content.language", string(lang)))

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	text, err := s.gen.Generate(ctx, Prompt(lang, topic))
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		s.logger.Error("story generation failed", slog.String("error", err.Error()))
		telemetry.ContentGenerations.WithLabelValues("error").Inc()
		story.Text, story.Fallback = FallbackError, true
	case strings.TrimSpace(text) == "":
		telemetry.ContentGenerations.WithLabelValues("empty").Inc()
		story.Text, story.Fallback = FallbackEmpty, true
	default:
		telemetry.ContentGenerations.WithLabelValues("ok").Inc()
		story.Text = text
	}
	return story
}
