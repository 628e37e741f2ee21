package llm

import (
	"bytes"
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/kaptinlin/jsonschema"
	"gopkg.in/yaml.v3"
)

// Prompt names
const (
	PromptRiskAssessment = "risk_assessment"
	PromptNutrition      = "nutrition"
	PromptNutritionImage = "nutrition_image"
	PromptPsychology     = "psychology"
	PromptBraces         = "braces"
)

// Model classes a prompt can request
const (
	ModelBase       = "base"
	ModelStructured = "structured"
	ModelChat       = "chat"
)

//go:embed prompts.yaml
var defaultCatalog []byte

// Prompt is one entry of the prompt catalog.
type Prompt struct {
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
	System    string `yaml:"system"`
	User      string `yaml:"user"`
	Schema    string `yaml:"schema"`

	name   string
	tmpl   *template.Template
	schema *jsonschema.Schema
}

// Catalog holds the compiled prompts keyed by name.
type Catalog struct {
	prompts map[string]*Prompt
}

// LoadCatalog parses the embedded prompt catalog.
func LoadCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// ParseCatalog parses a YAML prompt catalog with strict validation.
// Unknown YAML fields are rejected and every prompt must have system and user text.
func ParseCatalog(data []byte) (*Catalog, error) {
	raw := map[string]*Prompt{}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse prompt catalog: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	for name, p := range raw {
		if p == nil {
			return nil, fmt.Errorf("prompt %s: empty definition", name)
		}
		p.name = name
		if strings.TrimSpace(p.System) == "" {
			return nil, fmt.Errorf("prompt %s: missing required field: system", name)
		}
		if strings.TrimSpace(p.User) == "" {
			return nil, fmt.Errorf("prompt %s: missing required field: user", name)
		}
		switch p.Model {
		case "":
			p.Model = ModelBase
		case ModelBase, ModelStructured, ModelChat:
		default:
			return nil, fmt.Errorf("prompt %s: unknown model class %q", name, p.Model)
		}
		if p.MaxTokens <= 0 {
			p.MaxTokens = 1000
		}

		tmpl, err := template.New(name).Option("missingkey=error").Parse(p.User)
		if err != nil {
			return nil, fmt.Errorf("prompt %s: invalid user template: %w", name, err)
		}
		p.tmpl = tmpl

		if strings.TrimSpace(p.Schema) != "" {
			schema, err := compiler.Compile([]byte(p.Schema))
			if err != nil {
				return nil, fmt.Errorf("prompt %s: failed to compile schema: %w", name, err)
			}
			p.schema = schema
		}
	}

	return &Catalog{prompts: raw}, nil
}

// Get returns the named prompt.
func (c *Catalog) Get(name string) (*Prompt, error) {
	p, ok := c.prompts[name]
	if !ok {
		return nil, fmt.Errorf("prompt %q not found in catalog", name)
	}
	return p, nil
}

// Names lists the catalog entries in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.prompts))
	for name := range c.prompts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render executes the user template with data.
func (p *Prompt) Render(data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", p.name, err)
	}
	return buf.String(), nil
}

// Validate checks payload against the prompt's JSON schema, if it has one.
func (p *Prompt) Validate(payload map[string]interface{}) error {
	if p.schema == nil {
		return nil
	}
	result := p.schema.Validate(payload)
	if !result.IsValid() {
		var errorMessages []string
		for field, evalErr := range result.Errors {
			errorMessages = append(errorMessages, fmt.Sprintf("%s: %s", field, evalErr.Error()))
		}
		sort.Strings(errorMessages)
		return fmt.Errorf("%s payload validation failed: %s", p.name, strings.Join(errorMessages, "; "))
	}
	return nil
}
