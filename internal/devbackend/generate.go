package devbackend

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"github.com/sells-group/profile-wizard/internal/model"
	"github.com/sells-group/profile-wizard/pkg/generation"
)

// Generated is the output of one generation run.
type Generated struct {
	Data          map[string]any
	Provenance    map[string]generation.FieldProvenance
	MissingFields []string
}

// Generator produces profile data for a wizard kind and seed.
type Generator interface {
	Generate(ctx context.Context, kind model.WizardKind, seed string) (*Generated, error)
}

// FixtureGenerator returns canned data, for offline development.
type FixtureGenerator struct{}

func (FixtureGenerator) Generate(_ context.Context, kind model.WizardKind, seed string) (*Generated, error) {
	switch kind {
	case model.KindPersonalProfile:
		return &Generated{
			Data: map[string]any{
				"full_name": "Jane Doe",
				"headline":  "VP of Sales",
				"company":   "Acme Corp",
				"role":      "Sales leadership",
				"location":  "Austin, TX",
				"summary":   "Seed: " + seed,
			},
			Provenance: map[string]generation.FieldProvenance{
				"full_name": {Value: "Jane Doe", Source: "profile", Confidence: 0.9, Editable: true, Required: true},
				"headline":  {Value: "VP of Sales", Source: "profile", Confidence: 0.85, Editable: true},
				"company":   {Value: "Acme Corp", Source: "inferred", Confidence: 0.6, Editable: true},
				"summary":   {Value: "", Source: "model", Confidence: 0.3, Editable: true},
			},
		}, nil
	case model.KindCompanyProfile:
		return &Generated{
			Data: map[string]any{
				"company_name": "Acme Corp",
				"website":      seed,
				"industry":     "Manufacturing",
				"description":  "Industrial equipment supplier.",
				"headcount":    float64(120),
			},
			Provenance: map[string]generation.FieldProvenance{
				"company_name": {Value: "Acme Corp", Source: "website", Confidence: 0.92, Editable: true, Required: true},
				"website":      {Value: seed, Source: "input", Confidence: 1.0, Editable: true, Required: true},
				"industry":     {Value: "Manufacturing", Source: "inferred", Confidence: 0.55, Editable: true},
				"headcount":    {Value: float64(120), Source: "inferred", Confidence: 0.4, Editable: true},
			},
			MissingFields: []string{"location"},
		}, nil
	case model.KindDataExport:
		return &Generated{
			Data: map[string]any{
				"account_id":   seed,
				"export_scope": "all",
				"download_url": fmt.Sprintf("https://exports.example.com/%s.zip", seed),
			},
			Provenance: map[string]generation.FieldProvenance{
				"account_id": {Value: seed, Source: "input", Confidence: 1.0, Editable: false, Required: true},
			},
		}, nil
	case model.KindAccountDeletion:
		return &Generated{
			Data: map[string]any{
				"account_id":     seed,
				"scheduled_date": "30 days from request",
				"retained_data":  "billing records (legal requirement)",
			},
			Provenance: map[string]generation.FieldProvenance{
				"account_id": {Value: seed, Source: "input", Confidence: 1.0, Editable: false, Required: true},
			},
		}, nil
	}
	return nil, eris.Errorf("devbackend: unknown kind %s", kind)
}

// AnthropicGenerator produces data with a single model call. The
// response is requested as a flat JSON object; anything unparsable
// falls back to an error rather than partial data.
type AnthropicGenerator struct {
	client sdk.Client
	model  string
}

// NewAnthropicGenerator creates a generator backed by the Anthropic API.
func NewAnthropicGenerator(apiKey, modelID string) *AnthropicGenerator {
	return &AnthropicGenerator{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		model:  modelID,
	}
}

func (g *AnthropicGenerator) Generate(ctx context.Context, kind model.WizardKind, seed string) (*Generated, error) {
	prompt := buildPrompt(kind, seed)

	msg, err := g.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(g.model),
		MaxTokens: 1024,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "devbackend: generate")
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return parseGenerated(text.String())
}

func buildPrompt(kind model.WizardKind, seed string) string {
	return fmt.Sprintf(`Generate a %s record for the seed input %q.
Respond with only a JSON object of the form
{"data": {...}, "provenance": {"<field>": {"value": ..., "source": "...", "confidence": 0.0}}, "missing_fields": []}.
Confidence is a number in [0,1]. Use snake_case field names.`, kind, seed)
}

func parseGenerated(text string) (*Generated, error) {
	// Strip a possible markdown fence around the JSON.
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var parsed struct {
		Data          map[string]any            `json:"data"`
		Provenance    map[string]map[string]any `json:"provenance"`
		MissingFields []string                  `json:"missing_fields"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &parsed); err != nil {
		return nil, eris.Wrap(err, "devbackend: parse model output")
	}

	out := &Generated{
		Data:          parsed.Data,
		MissingFields: parsed.MissingFields,
		Provenance:    make(map[string]generation.FieldProvenance, len(parsed.Provenance)),
	}
	for field, entry := range parsed.Provenance {
		prov := generation.FieldProvenance{Editable: true}
		prov.Value = entry["value"]
		if s, ok := entry["source"].(string); ok {
			prov.Source = s
		}
		if c, ok := entry["confidence"].(float64); ok {
			prov.Confidence = c
		}
		out.Provenance[field] = prov
	}
	return out, nil
}
