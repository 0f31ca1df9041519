// Package gemini implements classifier.VisionModel on Google's Gemini API.
package gemini

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/tphakala/nutritive-go/internal/errors"
	"github.com/tphakala/nutritive-go/internal/imaging"
)

// DefaultModel is used when no model name is configured
const DefaultModel = "gemini-1.5-flash"

// Model sends meal photos to a Gemini generative model
type Model struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

// New creates a Gemini client for apiKey. Extra client options are passed
// through to genai.NewClient.
func New(ctx context.Context, apiKey, modelName string, opts ...option.ClientOption) (*Model, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.Newf("gemini API key is empty").
			Component("classifier.gemini").
			Category(errors.CategoryConfiguration).
			Build()
	}
	modelName = strings.TrimSpace(modelName)
	if modelName == "" {
		modelName = DefaultModel
	}

	cl, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, errors.New(err).
			Component("classifier.gemini").
			Category(errors.CategoryExternalModel).
			Context("model", modelName).
			Build()
	}

	m := cl.GenerativeModel(modelName)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}

	return &Model{client: cl, model: m, name: modelName}, nil
}

// Name returns the model name
func (m *Model) Name() string { return m.name }

// Detect sends the prompt and the encoded photo and returns the first text
// part of the answer with any code fences removed.
func (m *Model) Detect(ctx context.Context, prompt string, photo *imaging.Photo) (string, error) {
	if photo == nil || len(photo.Data) == 0 {
		return "", errors.Newf("no image data to send").
			Component("classifier.gemini").
			Category(errors.CategoryValidation).
			Build()
	}

	parts := []genai.Part{
		genai.Text(prompt),
		&genai.Blob{MIMEType: photo.MIMEType(), Data: photo.Data},
	}

	resp, err := m.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", errors.New(err).
			Component("classifier.gemini").
			Category(errors.CategoryExternalModel).
			Context("model", m.name).
			Context("operation", "generate_content").
			Build()
	}

	txt := firstText(resp)
	if txt == "" {
		return "", errors.Newf("gemini returned an empty response").
			Component("classifier.gemini").
			Category(errors.CategoryExternalModel).
			Context("model", m.name).
			Build()
	}
	return stripCodeFences(txt), nil
}

// Close releases the underlying client
func (m *Model) Close() error {
	if m.client == nil {
		return nil
	}
	return m.client.Close()
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func ptrFloat32(v float32) *float32 { return &v }
