package prompts

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/menuguard/menuguard-engine/pkg/models"
)

// Overrides allows replacing the built-in system instructions from a YAML file.
// Empty fields keep the defaults.
type Overrides struct {
	AnalysisSystem    string `yaml:"analysis_system"`
	SummarySystem     string `yaml:"summary_system"`
	AlternativeSystem string `yaml:"alternative_system"`
	ChatSystem        string `yaml:"chat_system"`
}

// Library resolves per-operation prompts, applying any configured overrides.
type Library struct {
	overrides Overrides
}

// NewLibrary creates a Library. An empty path means built-in prompts only.
func NewLibrary(path string) (*Library, error) {
	lib := &Library{}
	if path == "" {
		return lib, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt overrides: %w", err)
	}
	if err := yaml.Unmarshal(data, &lib.overrides); err != nil {
		return nil, fmt.Errorf("failed to parse prompt overrides: %w", err)
	}
	return lib, nil
}

// AnalysisSystem returns the system instruction for menu classification.
func (l *Library) AnalysisSystem(allergies, preferences string) string {
	return BuildAnalysisSystemMessage(l.base(l.overrides.AnalysisSystem, defaultAnalysisSystem), allergies, preferences)
}

// SummarySystem returns the system instruction for result summaries.
func (l *Library) SummarySystem() string {
	return l.base(l.overrides.SummarySystem, defaultSummarySystem)
}

// AlternativeSystem returns the system instruction for substitute suggestions.
func (l *Library) AlternativeSystem() string {
	return l.base(l.overrides.AlternativeSystem, defaultAlternativeSystem)
}

// ChatSystem returns the system instruction for follow-up chat turns.
func (l *Library) ChatSystem(allergies, preferences string) string {
	return BuildChatSystemMessage(l.base(l.overrides.ChatSystem, defaultChatSystem), allergies, preferences)
}

// SummaryPrompt renders the user prompt for a summary request.
func (l *Library) SummaryPrompt(results []models.AnalysisResultItem, allergies, preferences string) string {
	return BuildSummaryPrompt(results, allergies, preferences)
}

func (l *Library) base(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}
