package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"
)

// VertexCompleter sends prompts to a Gemini model on Vertex AI.
type VertexCompleter struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewVertexCompleter(ctx context.Context, projectID, location, modelName, credentialsFile string) (*VertexCompleter, error) {
	if projectID == "" {
		return nil, errors.New("VERTEX_PROJECT_ID not set")
	}
	opts := []option.ClientOption{}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := genai.NewClient(ctx, projectID, location, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}
	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	return &VertexCompleter{client: client, model: model}, nil
}

func (v *VertexCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := v.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("vertex generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("no response generated")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("no text in response")
	}
	return b.String(), nil
}

func (v *VertexCompleter) Close() error { return v.client.Close() }
