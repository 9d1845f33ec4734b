// Package agriassistant analyses photos of soil samples and plant pests with
// a Gemini vision model.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//		"os"
//
//		agriassistant "github.com/menta2k/agri-assistant"
//		"github.com/menta2k/agri-assistant/pkg/encoder"
//	)
//
//	func main() {
//		ctx := context.Background()
//		assistant, err := agriassistant.New(ctx, agriassistant.Options{APIKey: os.Getenv("API_KEY")})
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		img, err := encoder.ReadFile("soil.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		result, err := assistant.AnalyzeSoil(ctx, img)
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Printf("%s soil, pH %.1f\n", result.SoilType, result.EstimatedPh)
//	}
//
// The package consists of these components:
//
// 1. Encoder (pkg/encoder): turns image files into inline base64 payloads
// 2. Analysis (pkg/analysis): prompts, response schemas and strict parsing
// 3. Gemini (pkg/gemini): the remote model transport
// 4. Presenter (pkg/presenter): per-view state for the web interface
//
// Every analysis is one request and one response. There are no retries and no
// client side timeout; a failed analysis surfaces as analysis.ErrAnalysisFailed
// while the cause is logged.
package agriassistant

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/menta2k/agri-assistant/pkg/analysis"
	"github.com/menta2k/agri-assistant/pkg/client"
	"github.com/menta2k/agri-assistant/pkg/encoder"
	"github.com/menta2k/agri-assistant/pkg/gemini"
	"github.com/menta2k/agri-assistant/pkg/presenter"
	"github.com/menta2k/agri-assistant/pkg/processing"
	"github.com/menta2k/agri-assistant/pkg/types"
)

// Version of the assistant
const Version = "1.0.0"

// Options configures an Assistant
type Options struct {
	APIKey  string
	Model   string
	BaseURL string

	PreviewSize    int
	PreviewQuality int

	Logger *zap.Logger
}

// Assistant provides a high-level interface for soil and pest analysis
type Assistant struct {
	analyzer  *analysis.Analyzer
	processor *processing.Processor
	logger    *zap.Logger
}

// New creates an Assistant backed by the Gemini API
func New(ctx context.Context, opts Options) (*Assistant, error) {
	gen, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:  opts.APIKey,
		Model:   opts.Model,
		BaseURL: opts.BaseURL,
	})
	if err != nil {
		return nil, err
	}
	if opts.Model == "" {
		opts.Model = gen.Model()
	}
	return NewWithGenerator(gen, opts), nil
}

// NewWithGenerator creates an Assistant around an existing Generator
func NewWithGenerator(gen client.Generator, opts Options) *Assistant {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Model == "" {
		opts.Model = gemini.DefaultModel
	}
	return &Assistant{
		analyzer:  analysis.New(gen, opts.Model, logger.Named("analysis")),
		processor: processing.NewProcessorWithSize(opts.PreviewSize, opts.PreviewQuality),
		logger:    logger,
	}
}

// AnalyzeSoil analyses a soil photo
func (a *Assistant) AnalyzeSoil(ctx context.Context, src encoder.Source) (*types.SoilAnalysisResult, error) {
	return a.analyzer.AnalyzeSoil(ctx, src)
}

// IdentifyPest identifies the pest in a photo
func (a *Assistant) IdentifyPest(ctx context.Context, src encoder.Source) (*types.PestAnalysisResult, error) {
	return a.analyzer.IdentifyPest(ctx, src)
}

// Analyze runs the analysis of the given kind and returns its result
func (a *Assistant) Analyze(ctx context.Context, kind types.AnalysisKind, src encoder.Source) (any, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown analysis kind: %q", kind)
	}
	if kind == types.KindPest {
		return a.IdentifyPest(ctx, src)
	}
	return a.AnalyzeSoil(ctx, src)
}

// NewSoilPresenter returns fresh view state for the soil analysis view
func (a *Assistant) NewSoilPresenter() *presenter.Presenter[types.SoilAnalysisResult] {
	return presenter.NewSoil(a.analyzer, a.processor)
}

// NewPestPresenter returns fresh view state for the pest identifier view
func (a *Assistant) NewPestPresenter() *presenter.Presenter[types.PestAnalysisResult] {
	return presenter.NewPest(a.analyzer, a.processor)
}

// Model returns the model name used for analyses
func (a *Assistant) Model() string {
	return a.analyzer.Model()
}

// Logger returns the assistant's logger
func (a *Assistant) Logger() *zap.Logger {
	return a.logger
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
