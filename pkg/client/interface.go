package client

import (
	"context"

	"github.com/menta2k/agri-assistant/pkg/types"
)

// SchemaType is the JSON type of a schema node
type SchemaType string

const (
	TypeObject  SchemaType = "object"
	TypeArray   SchemaType = "array"
	TypeString  SchemaType = "string"
	TypeNumber  SchemaType = "number"
	TypeBoolean SchemaType = "boolean"
)

// Schema declares the shape the model must give its JSON answer.
// Property order is kept in PropertyOrder so the request is deterministic.
type Schema struct {
	Type          SchemaType
	Description   string
	Properties    map[string]*Schema
	PropertyOrder []string
	Items         *Schema
	Required      []string
}

// Request is a single image + instruction generation call
type Request struct {
	Model  string
	Prompt string
	Image  types.InlineImage
	Schema *Schema
}

// Generator sends one request to a multimodal model and returns the raw response text
type Generator interface {
	GenerateJSON(ctx context.Context, req Request) (string, error)
}
