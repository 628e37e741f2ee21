package llm

import (
	"strings"
	"testing"
)

func TestLoadCatalog(t *testing.T) {
	catalog, err := LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}

	want := []string{PromptBraces, PromptNutrition, PromptNutritionImage, PromptPsychology, PromptRiskAssessment}
	got := catalog.Names()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected prompts %v, got %v", want, got)
	}

	risk, _ := catalog.Get(PromptRiskAssessment)
	if risk.Model != ModelStructured {
		t.Errorf("risk assessment should use the structured model class, got %s", risk.Model)
	}
	if err := risk.Validate(map[string]interface{}{"cavity_risk": 0.4, "recommendations": []interface{}{"floss"}}); err != nil {
		t.Errorf("valid payload rejected: %v", err)
	}
	if err := risk.Validate(map[string]interface{}{"recommendations": "floss"}); err == nil {
		t.Error("expected string recommendations to fail validation")
	}

	image, _ := catalog.Get(PromptNutritionImage)
	if err := image.Validate(map[string]interface{}{"health_score": "good"}); err == nil {
		t.Error("nutrition image schema should be shared with text nutrition")
	}
}

func TestPromptRender(t *testing.T) {
	catalog, _ := LoadCatalog()
	p, _ := catalog.Get(PromptNutritionImage)

	withHint, err := p.Render(map[string]interface{}{"Description": "soup", "Context": ""})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(withHint, `use this description: "soup"`) {
		t.Errorf("description hint missing: %s", withHint)
	}

	noHint, _ := p.Render(map[string]interface{}{"Description": "", "Context": ""})
	if strings.Contains(noHint, "use this description") {
		t.Errorf("empty description should omit hint: %s", noHint)
	}

	if _, err := p.Render(map[string]interface{}{}); err == nil {
		t.Error("missing template keys should be an error")
	}
}

func TestParseCatalogStrict(t *testing.T) {
	cases := map[string]string{
		"unknown field":  "x:\n  system: s\n  user: u\n  temperature: 1\n",
		"missing system": "x:\n  user: u\n",
		"missing user":   "x:\n  system: s\n",
		"bad model":      "x:\n  model: huge\n  system: s\n  user: u\n",
		"bad template":   "x:\n  system: s\n  user: \"{{.Broken\"\n",
	}
	for name, data := range cases {
		if _, err := ParseCatalog([]byte(data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}

	c, err := ParseCatalog([]byte("x:\n  system: s\n  user: u\n"))
	if err != nil {
		t.Fatalf("minimal catalog: %v", err)
	}
	p, _ := c.Get("x")
	if p.Model != ModelBase || p.MaxTokens != 1000 {
		t.Errorf("expected defaults, got model=%s max_tokens=%d", p.Model, p.MaxTokens)
	}
	if _, err := c.Get("missing"); err == nil {
		t.Error("expected error for unknown prompt")
	}
}
