package config

import (
	"fmt"
	"os"
	"strings"

	"bitbraniac-be/internal/constant"

	"gopkg.in/yaml.v3"
)

// Persona is the tutor identity handed to the model on every turn.
type Persona struct {
	Name           string `yaml:"name"`
	SystemPrompt   string `yaml:"system_prompt"`
	WelcomeMessage string `yaml:"welcome_message"`
}

func DefaultPersona() Persona {
	return Persona{
		Name:           constant.DefaultPersonaName,
		SystemPrompt:   constant.DefaultSystemPrompt,
		WelcomeMessage: constant.DefaultWelcomeMessage,
	}
}

// LoadPersona reads a YAML persona file. Fields left empty in the file keep
// their default values. An empty path returns the default persona.
func LoadPersona(path string) (Persona, error) {
	persona := DefaultPersona()
	if path == "" {
		return persona, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return persona, fmt.Errorf("read persona file: %w", err)
	}

	var override Persona
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return persona, fmt.Errorf("parse persona file: %w", err)
	}

	if name := strings.TrimSpace(override.Name); name != "" {
		persona.Name = name
	}
	if prompt := strings.TrimSpace(override.SystemPrompt); prompt != "" {
		persona.SystemPrompt = prompt
	}
	if welcome := strings.TrimSpace(override.WelcomeMessage); welcome != "" {
		persona.WelcomeMessage = welcome
	}
	return persona, nil
}
