package gemini

import (
	"context"

	"google.golang.org/genai"
)

// Generation knobs. Extraction runs hot enough to phrase instructions
// naturally but bounded for reproducible JSON; nutrition estimation
// runs cooler and shorter.
const (
	analysisTemperature  float32 = 0.7
	analysisTopP         float32 = 0.95
	nutritionTemperature float32 = 0.5
	nutritionTopP        float32 = 0.9
	nutritionMaxTokens   int32   = 2048

	// Maximum thinking budget for the 2.5 model family.
	maxThinkingBudget int32 = 24576
)

// genaiBackend implements backend on the official Gemini SDK.
type genaiBackend struct {
	client *genai.Client
}

func newGenAIBackend(ctx context.Context, apiKey string) (*genaiBackend, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &genaiBackend{client: client}, nil
}

func (b *genaiBackend) UploadVideo(ctx context.Context, path string) (*asset, error) {
	file, err := b.client.Files.UploadFromPath(ctx, path, &genai.UploadFileConfig{
		MIMEType: "video/mp4",
	})
	if err != nil {
		return nil, err
	}
	return &asset{
		Name:     file.Name,
		URI:      file.URI,
		MIMEType: file.MIMEType,
		State:    assetState(file.State),
	}, nil
}

func (b *genaiBackend) AssetState(ctx context.Context, name string) (AssetState, error) {
	file, err := b.client.Files.Get(ctx, name, nil)
	if err != nil {
		return AssetStateUnspecified, err
	}
	return assetState(file.State), nil
}

func (b *genaiBackend) Generate(ctx context.Context, req generateRequest) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	if req.FileURI != "" {
		parts = append(parts, genai.NewPartFromURI(req.FileURI, req.FileMIME))
	}
	for _, frame := range req.Frames {
		parts = append(parts, genai.NewPartFromBytes(frame, "image/jpeg"))
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Temperature),
		TopP:            genai.Ptr(req.TopP),
		MaxOutputTokens: req.MaxOutputTokens,
	}
	if req.MaxThinking {
		cfg.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(maxThinkingBudget),
		}
	}
	if req.HighResolution {
		cfg.MediaResolution = genai.MediaResolutionHigh
	}

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := b.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func assetState(s genai.FileState) AssetState {
	switch s {
	case genai.FileStateProcessing:
		return AssetStateProcessing
	case genai.FileStateActive:
		return AssetStateActive
	case genai.FileStateFailed:
		return AssetStateFailed
	default:
		return AssetStateUnspecified
	}
}

var _ backend = (*genaiBackend)(nil)
