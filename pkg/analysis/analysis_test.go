package analysis

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/menta2k/agri-assistant/pkg/client"
	"github.com/menta2k/agri-assistant/pkg/encoder"
	"github.com/menta2k/agri-assistant/pkg/types"
)

type fakeGenerator struct {
	mu       sync.Mutex
	response string
	err      error
	requests []client.Request
}

func (f *fakeGenerator) GenerateJSON(_ context.Context, req client.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.response, f.err
}

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02}

func jpegFile() *encoder.File {
	return &encoder.File{Name: "sample.jpg", Type: "image/jpeg", Data: append([]byte(nil), jpegBytes...)}
}

const soilJSON = `{"soilType":"Sandy","estimatedPh":6.5,"description":"Loose, well drained.","suggestedCrops":[{"name":"Millet","reason":"Drought tolerant."}]}`

const pestJSON = `{"pestName":"Fall armyworm","damageDescription":"Eats maize leaves.","isHarmful":true,"controlMethods":[{"method":"Neem oil","description":"Spray weekly."},{"method":"Hand picking","description":"Remove larvae."}]}`

func TestAnalyzeSoil(t *testing.T) {
	gen := &fakeGenerator{response: "\n  " + soilJSON + "\n"}
	a := New(gen, "gemini-2.5-flash", zap.NewNop())

	got, err := a.AnalyzeSoil(context.Background(), jpegFile())
	require.NoError(t, err)

	want := &types.SoilAnalysisResult{
		SoilType:       "Sandy",
		EstimatedPh:    6.5,
		Description:    "Loose, well drained.",
		SuggestedCrops: []types.Crop{{Name: "Millet", Reason: "Drought tolerant."}},
	}
	assert.Equal(t, want, got)

	require.Len(t, gen.requests, 1, "exactly one request per analysis")
	req := gen.requests[0]
	assert.Equal(t, "gemini-2.5-flash", req.Model)
	assert.Equal(t, SoilPrompt, req.Prompt)
	assert.Same(t, SoilSchema, req.Schema)
	assert.Equal(t, base64.StdEncoding.EncodeToString(jpegBytes), req.Image.Data)
	assert.Equal(t, "image/jpeg", req.Image.MIMEType)
}

func TestIdentifyPest(t *testing.T) {
	gen := &fakeGenerator{response: pestJSON}
	a := New(gen, "m", nil)

	got, err := a.IdentifyPest(context.Background(), jpegFile())
	require.NoError(t, err)
	assert.Equal(t, "Fall armyworm", got.PestName)
	assert.True(t, got.IsHarmful)
	require.Len(t, got.ControlMethods, 2)
	assert.Equal(t, "Neem oil", got.ControlMethods[0].Method)

	require.Len(t, gen.requests, 1)
	assert.Equal(t, PestPrompt, gen.requests[0].Prompt)
	assert.Same(t, PestSchema, gen.requests[0].Schema)
}

func TestIdentifyPestAllowsEmptyControlMethods(t *testing.T) {
	gen := &fakeGenerator{response: `{"pestName":"Ladybird","damageDescription":"Harmless, eats aphids.","isHarmful":false,"controlMethods":[]}`}

	got, err := New(gen, "m", nil).IdentifyPest(context.Background(), jpegFile())
	require.NoError(t, err)
	assert.False(t, got.IsHarmful)
	assert.Empty(t, got.ControlMethods)
}

func TestFailuresAreNormalized(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
	}{
		{name: "network error", err: errors.New("dial tcp: connection refused")},
		{name: "empty response", response: "   "},
		{name: "malformed json", response: `{"soilType": "Sandy",`},
		{name: "missing field", response: `{"soilType":"Sandy","estimatedPh":6.5,"description":"x"}`},
		{name: "wrong type", response: `{"soilType":"Sandy","estimatedPh":"six","description":"x","suggestedCrops":[]}`},
		{name: "null field", response: `{"soilType":null,"estimatedPh":6.5,"description":"x","suggestedCrops":[]}`},
		{name: "bad crop item", response: `{"soilType":"Sandy","estimatedPh":6.5,"description":"x","suggestedCrops":[{"name":"Millet"}]}`},
		{name: "not an object", response: `["Sandy"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.ErrorLevel)
			gen := &fakeGenerator{response: tt.response, err: tt.err}

			got, err := New(gen, "m", zap.New(core)).AnalyzeSoil(context.Background(), jpegFile())
			assert.Nil(t, got)
			require.ErrorIs(t, err, ErrAnalysisFailed)
			assert.Equal(t, ErrAnalysisFailed, err, "technical detail must not leak")
			if tt.err != nil {
				assert.NotContains(t, err.Error(), "connection refused")
			}

			require.Equal(t, 1, logs.Len(), "the cause is logged")
			assert.Equal(t, "analysis failed", logs.All()[0].Message)
			assert.Len(t, gen.requests, 1)
		})
	}
}

type unreadable struct{}

func (unreadable) Open() (io.ReadCloser, error) { return nil, errors.New("unreadable") }

func (unreadable) MediaType() string { return "image/jpeg" }

func TestEncodeFailureSkipsRequest(t *testing.T) {
	gen := &fakeGenerator{response: soilJSON}

	_, err := New(gen, "m", nil).AnalyzeSoil(context.Background(), unreadable{})
	assert.ErrorIs(t, err, ErrAnalysisFailed)
	assert.Empty(t, gen.requests)
}

func TestExtraFieldsAreIgnored(t *testing.T) {
	text := `{"soilType":"Clay","estimatedPh":7,"description":"Heavy.","suggestedCrops":[],"confidence":0.4}`
	got, err := Parse[types.SoilAnalysisResult](text, SoilSchema)
	require.NoError(t, err)
	assert.Equal(t, "Clay", got.SoilType)
	assert.Equal(t, 7.0, got.EstimatedPh)
}

func TestPromptAndSchemaByKind(t *testing.T) {
	assert.Equal(t, SoilPrompt, Prompt(types.KindSoil))
	assert.Equal(t, PestPrompt, Prompt(types.KindPest))
	assert.Same(t, SoilSchema, Schema(types.KindSoil))
	assert.Same(t, PestSchema, Schema(types.KindPest))

	assert.Panics(t, func() { Prompt(types.AnalysisKind("leaf")) })
	assert.Panics(t, func() { Schema(types.AnalysisKind("")) })
	assert.Equal(t, []string{"soilType", "estimatedPh", "description", "suggestedCrops"}, SoilSchema.Required)
}
