package gemini

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/menta2k/agri-assistant/pkg/client"
	"github.com/menta2k/agri-assistant/pkg/types"
)

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), Config{})
	assert.Error(t, err)
}

func TestGenerateJSON(t *testing.T) {
	img := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	encoded := base64.StdEncoding.EncodeToString(img)

	var calls atomic.Int32
	bodies := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		b, _ := io.ReadAll(r.Body)
		bodies <- string(b)
		assert.True(t, strings.HasSuffix(r.URL.Path, "gemini-2.5-flash:generateContent"), r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"soilType\":\"Sandy\"}"}]}}]}`)
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), Config{APIKey: "test-key", BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, c.Model())

	text, err := c.GenerateJSON(context.Background(), client.Request{
		Prompt: "describe the soil",
		Image:  types.InlineImage{Data: encoded, MIMEType: "image/jpeg"},
		Schema: &client.Schema{Type: client.TypeObject, Properties: map[string]*client.Schema{"soilType": {Type: client.TypeString}}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"soilType":"Sandy"}`, text)

	assert.Equal(t, int32(1), calls.Load(), "one request per call")
	body := <-bodies
	assert.Contains(t, body, encoded)
	assert.Contains(t, body, "image/jpeg")
	assert.Contains(t, body, "describe the soil")
	assert.Contains(t, body, "application/json")
}

func TestGenerateJSONServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"code":500,"message":"internal","status":"INTERNAL"}}`)
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), Config{APIKey: "k", Model: "m", BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	_, err = c.GenerateJSON(context.Background(), client.Request{Image: types.InlineImage{Data: "QUJD", MIMEType: "image/png"}})
	assert.Error(t, err)
}

func TestGenerateJSONRejectsBadPayload(t *testing.T) {
	c, err := NewClient(context.Background(), Config{APIKey: "k", BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	_, err = c.GenerateJSON(context.Background(), client.Request{Image: types.InlineImage{Data: "***"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode base64")
}

func TestToGenAISchema(t *testing.T) {
	s := &client.Schema{
		Type:          client.TypeObject,
		Description:   "root",
		PropertyOrder: []string{"n", "items"},
		Required:      []string{"n", "items"},
		Properties: map[string]*client.Schema{
			"n":     {Type: client.TypeNumber},
			"ok":    {Type: client.TypeBoolean},
			"items": {Type: client.TypeArray, Items: &client.Schema{Type: client.TypeString}},
		},
	}

	got := ToGenAISchema(s)
	assert.Equal(t, genai.TypeObject, got.Type)
	assert.Equal(t, "root", got.Description)
	assert.Equal(t, []string{"n", "items"}, got.Required)
	assert.Equal(t, []string{"n", "items"}, got.PropertyOrdering)
	assert.Equal(t, genai.TypeNumber, got.Properties["n"].Type)
	assert.Equal(t, genai.TypeBoolean, got.Properties["ok"].Type)
	assert.Equal(t, genai.TypeArray, got.Properties["items"].Type)
	assert.Equal(t, genai.TypeString, got.Properties["items"].Items.Type)
	assert.Nil(t, ToGenAISchema(nil))
}
