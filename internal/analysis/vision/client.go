// Package vision calls the Gemini API to assess job photos and turn the
// model's verdict into cost-adjustment factors. Parsing is deliberately
// forgiving: the model side of this boundary is noisy, and anything that
// cannot be read coerces to neutral rather than failing the request.
package vision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"renoquote_backend/platform/config"

	"google.golang.org/genai"
)

// ImageData is one photo to analyze.
type ImageData struct {
	MIMEType string // e.g., "image/jpeg", "image/png"
	Data     []byte // Raw image bytes
	Filename string // Original filename (optional)
}

// AssessmentRequest carries the photos and job context for one analysis.
type AssessmentRequest struct {
	Images      []ImageData
	ServiceType string
	Description string
}

// contentGenerator abstracts the model call so tests can stub it.
type contentGenerator interface {
	generate(ctx context.Context, content *genai.Content) (string, error)
}

// Client assesses job photos with a Gemini multimodal model.
type Client struct {
	generator contentGenerator
	modelName string
}

// New creates a vision client for the configured Gemini model.
func New(ctx context.Context, cfg config.VisionConfig) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GetGeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{
		generator: &geminiGenerator{client: client, modelName: cfg.GetGeminiModel()},
		modelName: cfg.GetGeminiModel(),
	}, nil
}

// Assess sends the photos with an instruction prompt to the model and
// parses the JSON verdict. A response that cannot be parsed returns an
// error; callers fall back to the neutral adjustment in that case.
func (c *Client) Assess(ctx context.Context, req AssessmentRequest) (Verdict, error) {
	if len(req.Images) == 0 {
		return Verdict{}, errors.New("no images provided")
	}

	output, err := c.generator.generate(ctx, buildUserContent(req))
	if err != nil {
		return Verdict{}, err
	}

	verdict, err := ParseVerdict(output)
	if err != nil {
		return Verdict{}, err
	}

	return *verdict, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.modelName
}

func buildUserContent(req AssessmentRequest) *genai.Content {
	parts := make([]*genai.Part, 0, len(req.Images)+1)
	for _, img := range req.Images {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: img.MIMEType,
				Data:     img.Data,
			},
		})
	}

	parts = append(parts, genai.NewPartFromText(buildAssessmentPrompt(len(req.Images), req.ServiceType, req.Description)))

	return &genai.Content{
		Role:  "user",
		Parts: parts,
	}
}

func buildAssessmentPrompt(photoCount int, serviceType, description string) string {
	prompt := fmt.Sprintf(`Analyseer de %d foto('s) van deze klus en beoordeel hoe de getoonde situatie de prijs van het werk beïnvloedt.
`, photoCount)

	if serviceType != "" {
		prompt += fmt.Sprintf(`
## DIENSTTYPE: %s
Gebruik je vakkennis over '%s' om materialen, componenten en de omvang van het werk te herkennen.
Controleer eerst of de foto's inhoudelijk bij dit diensttype passen. Bij een mismatch: zet confidence op Low en benoem de mismatch in summary.
`, serviceType, serviceType)
	}

	if description != "" {
		prompt += fmt.Sprintf(`
## Context van de aanvraag (CLAIMS VAN CONSUMENT):
%s

Vergelijk deze claims kritisch met wat je daadwerkelijk op de foto's ziet.
`, description)
	}

	prompt += `
## ANTWOORDFORMAAT
Antwoord UITSLUITEND met een JSON-object, zonder tekst eromheen:
{
  "summary": "korte samenvatting van wat de foto's tonen",
  "observations": ["opvallende bevinding", "..."],
  "confidence": "High | Medium | Low",
  "factors": {
    "complexity": 1.0,
    "condition": 1.0,
    "access": 1.0,
    "materialQuality": 1.0
  }
}

Elke factor is een getal tussen 0.7 en 1.5 (1.0 = gemiddeld):
- complexity: hoe bewerkelijk is de klus
- condition: staat van de bestaande situatie (slechter = hoger)
- access: bereikbaarheid van de werkplek (moeilijker = hoger)
- materialQuality: vereist materiaalniveau (luxer = hoger)
Gebruik 1.0 voor een factor die niet uit de foto's blijkt.`

	return prompt
}

type geminiGenerator struct {
	client    *genai.Client
	modelName string
}

func (g *geminiGenerator) generate(ctx context.Context, content *genai.Content) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, []*genai.Content{content}, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}
