package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/menta2k/agri-assistant/pkg/client"
)

// DefaultModel is used when Config.Model is empty
const DefaultModel = "gemini-2.5-flash"

// Config holds the settings for a Gemini client
type Config struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint, mainly for tests
	BaseURL    string
	HTTPClient *http.Client
}

// Client wraps the Gemini API client
type Client struct {
	client *genai.Client
	model  string
}

var _ client.Generator = (*Client)(nil)

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	c, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Client{client: c, model: cfg.Model}, nil
}

// Model returns the default model of the client
func (c *Client) Model() string {
	return c.model
}

// GenerateJSON sends the image and prompt as a single user turn and asks for a
// JSON answer conforming to req.Schema. It returns the raw response text.
func (c *Client) GenerateJSON(ctx context.Context, req client.Request) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	// Decode base64 image to raw bytes, the SDK encodes it again on the wire
	imgBytes, err := base64.StdEncoding.DecodeString(req.Image.Data)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64 image: %w", err)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(imgBytes, req.Image.MIMEType),
			genai.NewPartFromText(req.Prompt),
		}, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	if req.Schema != nil {
		config.ResponseSchema = ToGenAISchema(req.Schema)
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini returned no text")
	}
	return text, nil
}

// ToGenAISchema converts a response contract into the SDK schema type
func ToGenAISchema(s *client.Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Type:        toGenAIType(s.Type),
		Description: s.Description,
		Required:    s.Required,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = ToGenAISchema(prop)
		}
		out.PropertyOrdering = s.PropertyOrder
	}
	if s.Items != nil {
		out.Items = ToGenAISchema(s.Items)
	}
	return out
}

func toGenAIType(t client.SchemaType) genai.Type {
	switch t {
	case client.TypeObject:
		return genai.TypeObject
	case client.TypeArray:
		return genai.TypeArray
	case client.TypeNumber:
		return genai.TypeNumber
	case client.TypeBoolean:
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}
