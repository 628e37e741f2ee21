package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prodentai/companion/internal/logging"
)

// ErrNotConfigured is returned internally when no provider credentials were supplied.
var ErrNotConfigured = errors.New("llm provider not configured")

// Models maps the catalog's model classes to concrete model names.
type Models struct {
	Base       string
	Structured string
	Chat       string
}

// Resolve returns the model for a catalog class. Structured tasks swap a
// reasoning base model for the structured-output model.
func (m Models) Resolve(class string) string {
	switch class {
	case ModelStructured:
		if IsReasoningModel(m.Base) && m.Structured != "" {
			return m.Structured
		}
		return m.Base
	case ModelChat:
		if m.Chat != "" {
			return m.Chat
		}
		return m.Base
	default:
		return m.Base
	}
}

// NutritionRequest describes a meal to analyse.
type NutritionRequest struct {
	Description string
	WeightGrams *float64
	VolumeML    *float64
}

// context renders the optional portion hints appended to the user prompt.
func (r NutritionRequest) context() string {
	var sb strings.Builder
	if r.WeightGrams != nil && *r.WeightGrams > 0 {
		fmt.Fprintf(&sb, "\nIMPORTANT: weight is %g grams. Compute calories and sugar for exactly this weight.", *r.WeightGrams)
	}
	if r.VolumeML != nil && *r.VolumeML > 0 {
		fmt.Fprintf(&sb, "\nIMPORTANT: volume is %g ml. Compute calories and sugar for exactly this volume.", *r.VolumeML)
	}
	return sb.String()
}

// Gateway builds prompts, calls the completer and maps every failure to a
// feature-specific default. Its methods never return errors. A Gateway is
// read-only after construction and safe for concurrent use.
type Gateway struct {
	completer Completer
	catalog   *Catalog
	models    Models
	timeout   time.Duration
	log       *logging.Logger
}

// NewGateway creates a gateway. A nil completer puts it in fallback-only mode.
func NewGateway(completer Completer, catalog *Catalog, models Models, timeout time.Duration, log *logging.Logger) *Gateway {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Gateway{
		completer: completer,
		catalog:   catalog,
		models:    models,
		timeout:   timeout,
		log:       log,
	}
}

// Configured reports whether a provider is available.
func (g *Gateway) Configured() bool {
	return g.completer != nil
}

// Provider names the active provider, or "none".
func (g *Gateway) Provider() string {
	if g.completer == nil {
		return "none"
	}
	return g.completer.Name()
}

// AssessRisks scores the four risk dimensions from questionnaire answers.
func (g *Gateway) AssessRisks(ctx context.Context, answers map[string]interface{}) RiskResult {
	questionnaire, err := json.MarshalIndent(answers, "", "  ")
	if err != nil {
		g.log.Warn("Failed to encode questionnaire, using fallback risk assessment", "error", err)
		return FallbackRisk()
	}

	out, err := g.structured(ctx, PromptRiskAssessment, map[string]interface{}{
		"Questionnaire": string(questionnaire),
	}, nil)
	if err != nil {
		g.log.Warn("Risk assessment unavailable, using fallback", "error", err)
		return FallbackRisk()
	}

	res := RiskFromOutcome(out)
	g.log.Info("Risk assessment completed", "outcome", out.Kind.String(), "recommendations", len(res.Recommendations))
	return res
}

// AnalyzeNutrition analyses a text description of a meal.
func (g *Gateway) AnalyzeNutrition(ctx context.Context, req NutritionRequest) NutritionResult {
	out, err := g.structured(ctx, PromptNutrition, map[string]interface{}{
		"Description": req.Description,
		"Context":     req.context(),
	}, nil)
	if err != nil {
		g.log.Warn("Nutrition analysis unavailable, using fallback", "error", err)
		return FallbackNutrition(req.Description)
	}

	res := NutritionFromOutcome(out, req.Description)
	g.log.Info("Nutrition analysis completed", "outcome", out.Kind.String(), "food_items", len(res.FoodItems))
	return res
}

// AnalyzeNutritionImage analyses a food photo, using the description as a hint.
func (g *Gateway) AnalyzeNutritionImage(ctx context.Context, img Image, req NutritionRequest) NutritionResult {
	out, err := g.structured(ctx, PromptNutritionImage, map[string]interface{}{
		"Description": req.Description,
		"Context":     req.context(),
	}, []Image{img})
	if err != nil {
		g.log.Warn("Image nutrition analysis unavailable, using fallback", "error", err)
		return FallbackNutrition(req.Description)
	}

	res := NutritionFromImageOutcome(out, req.Description)
	g.log.Info("Image nutrition analysis completed", "outcome", out.Kind.String(), "food_items", len(res.FoodItems))
	return res
}

// PsychologyReply answers a message from an anxious patient.
func (g *Gateway) PsychologyReply(ctx context.Context, message string) Reply {
	return g.reply(ctx, PromptPsychology, message, FallbackPsychology)
}

// BracesReply answers a question about braces.
func (g *Gateway) BracesReply(ctx context.Context, message string) Reply {
	return g.reply(ctx, PromptBraces, message, FallbackBraces)
}

func (g *Gateway) reply(ctx context.Context, prompt, message string, fallback func(string) string) Reply {
	text, err := g.complete(ctx, prompt, map[string]interface{}{"Message": message}, nil)
	if err != nil {
		g.log.Warn("Chat reply unavailable, using fallback", "prompt", prompt, "error", err)
		return Reply{Text: fallback(message), Source: SourceFallback}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		g.log.Warn("Model returned empty reply, using fallback", "prompt", prompt)
		return Reply{Text: fallback(message), Source: SourceFallback}
	}
	return Reply{Text: text, Source: SourceAI}
}

// structured completes a JSON-producing prompt and returns the tagged
// outcome. Payloads that violate the prompt schema are demoted to Malformed.
func (g *Gateway) structured(ctx context.Context, name string, data map[string]interface{}, images []Image) (Outcome, error) {
	text, err := g.complete(ctx, name, data, images)
	if err != nil {
		return Outcome{}, err
	}

	out := Extract(text)
	if out.Kind == OutcomeOK {
		p, _ := g.catalog.Get(name)
		if verr := p.Validate(out.Payload); verr != nil {
			g.log.Warn("Model payload failed schema validation", "prompt", name, "error", verr)
			return Outcome{Kind: OutcomeMalformed, Raw: out.Raw}, nil
		}
	} else {
		g.log.Warn("Model returned no usable JSON", "prompt", name, "outcome", out.Kind.String(), "raw", truncate(out.Raw, 200))
	}
	return out, nil
}

func (g *Gateway) complete(ctx context.Context, name string, data map[string]interface{}, images []Image) (string, error) {
	if g.completer == nil {
		return "", ErrNotConfigured
	}

	p, err := g.catalog.Get(name)
	if err != nil {
		return "", err
	}
	user, err := p.Render(data)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	model := g.models.Resolve(p.Model)
	g.log.Debug("Calling model", "prompt", name, "model", model, "provider", g.completer.Name(), "images", len(images))

	return g.completer.Complete(ctx, CompletionRequest{
		Model:     model,
		System:    p.System,
		User:      user,
		Images:    images,
		MaxTokens: p.MaxTokens,
	})
}

// Close releases provider resources, if the provider holds any.
func (g *Gateway) Close() error {
	if closer, ok := g.completer.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
