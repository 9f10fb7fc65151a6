// Package prompts holds the system prompts sent with every gateway request.
package prompts

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/vladimiradmaev/ai-trainer/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// Catalog maps prompt keys to prompt text
type Catalog struct {
	prompts map[domain.PromptKey]string
}

// Default parses the embedded catalogue
func Default() (*Catalog, error) {
	return Parse(defaultPrompts)
}

// Parse reads a YAML mapping of prompt key to text. Every known key is required.
func Parse(data []byte) (*Catalog, error) {
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse prompts: %w", err)
	}

	c := &Catalog{prompts: make(map[domain.PromptKey]string, len(raw))}
	for k, v := range raw {
		c.prompts[domain.PromptKey(k)] = strings.TrimSpace(v)
	}

	for _, key := range []domain.PromptKey{
		domain.PromptFitnessTrainer,
		domain.PromptInitialAssessment,
		domain.PromptFoodAnalysis,
		domain.PromptWorkoutAdvice,
	} {
		if c.prompts[key] == "" {
			return nil, fmt.Errorf("prompt %q is missing", key)
		}
	}
	return c, nil
}

// Get returns the prompt for key
func (c *Catalog) Get(key domain.PromptKey) (string, error) {
	p, ok := c.prompts[key]
	if !ok {
		return "", fmt.Errorf("unknown prompt %q", key)
	}
	return p, nil
}
