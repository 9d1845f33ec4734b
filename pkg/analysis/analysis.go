// Package analysis asks a multimodal model about soil and pest photos and
// turns its JSON answers into typed results.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/menta2k/agri-assistant/pkg/client"
	"github.com/menta2k/agri-assistant/pkg/encoder"
	"github.com/menta2k/agri-assistant/pkg/types"
)

// FailureMessage is what users see when an analysis cannot be produced
const FailureMessage = "Failed to get analysis from AI. The model may be unable to process this image."

// ErrAnalysisFailed is the only error returned by AnalyzeSoil and IdentifyPest.
// The underlying cause is logged, not returned.
var ErrAnalysisFailed = errors.New("failed to get analysis from AI: the model may be unable to process this image")

// ErrEmptyResponse is logged when the model answered with no text
var ErrEmptyResponse = errors.New("empty response from model")

// Analyzer runs soil and pest analyses against a Generator
type Analyzer struct {
	gen    client.Generator
	model  string
	logger *zap.Logger
}

// New creates an Analyzer. A nil logger disables logging.
func New(gen client.Generator, model string, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{gen: gen, model: model, logger: logger}
}

// Model returns the model name requests are sent to
func (a *Analyzer) Model() string {
	return a.model
}

// AnalyzeSoil identifies the soil type in the image and suggests crops for it
func (a *Analyzer) AnalyzeSoil(ctx context.Context, src encoder.Source) (*types.SoilAnalysisResult, error) {
	return analyze[types.SoilAnalysisResult](ctx, a, types.KindSoil, src)
}

// IdentifyPest identifies the pest in the image and suggests control methods
func (a *Analyzer) IdentifyPest(ctx context.Context, src encoder.Source) (*types.PestAnalysisResult, error) {
	return analyze[types.PestAnalysisResult](ctx, a, types.KindPest, src)
}

func analyze[T any](ctx context.Context, a *Analyzer, kind types.AnalysisKind, src encoder.Source) (*T, error) {
	log := a.logger.With(zap.String("kind", string(kind)), zap.String("model", a.model))

	result, err := request[T](ctx, a, kind, src)
	if err != nil {
		log.Error("analysis failed", zap.Error(err))
		return nil, ErrAnalysisFailed
	}

	log.Debug("analysis complete")
	return result, nil
}

func request[T any](ctx context.Context, a *Analyzer, kind types.AnalysisKind, src encoder.Source) (*T, error) {
	img, err := encoder.Encode(src)
	if err != nil {
		return nil, err
	}

	text, err := a.gen.GenerateJSON(ctx, client.Request{
		Model:  a.model,
		Prompt: Prompt(kind),
		Image:  img,
		Schema: Schema(kind),
	})
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	return Parse[T](text, Schema(kind))
}

// Parse trims the model text and decodes it into T after checking it
// against schema. Unknown keys are ignored; missing, null or mistyped
// required fields are rejected.
func Parse[T any](text string, schema *client.Schema) (*T, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyResponse
	}

	raw := json.RawMessage(text)
	if err := Validate(raw, schema); err != nil {
		return nil, fmt.Errorf("response does not match schema: %w", err)
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &out, nil
}
