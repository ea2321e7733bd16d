package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/menuguard/menuguard-engine/pkg/models"
)

func TestBuildAnalysisSystemMessage(t *testing.T) {
	msg := BuildAnalysisSystemMessage(defaultAnalysisSystem, "peanuts, shellfish", "vegetarian")

	if !strings.Contains(msg, "peanuts, shellfish") {
		t.Error("expected allergies in system message")
	}
	if !strings.Contains(msg, "vegetarian") {
		t.Error("expected preferences in system message")
	}
	for _, field := range []string{"itemName", "safetyLevel", "reasoning", "identifiedAllergens"} {
		if !strings.Contains(msg, field) {
			t.Errorf("expected output schema field %q in system message", field)
		}
	}
	if !strings.Contains(msg, "ONLY the JSON") {
		t.Error("expected JSON-only instruction")
	}
}

func TestBuildAnalysisSystemMessage_NoPreferences(t *testing.T) {
	msg := BuildAnalysisSystemMessage(defaultAnalysisSystem, "peanuts", "")

	if strings.Contains(msg, "Dietary preferences") {
		t.Error("expected no preferences line when preferences are empty")
	}
}

func TestBuildSummaryPrompt(t *testing.T) {
	results := []models.AnalysisResultItem{
		{ItemName: "Pad Thai", SafetyLevel: models.SafetyUnsafe, IdentifiedAllergens: []string{"peanuts"}},
		{ItemName: "Green Salad", SafetyLevel: models.SafetySafe},
	}

	prompt := BuildSummaryPrompt(results, "peanuts", "")

	if !strings.Contains(prompt, "Pad Thai [unsafe]") {
		t.Errorf("expected item line with safety level, got:\n%s", prompt)
	}
	if !strings.Contains(prompt, "allergens: peanuts") {
		t.Error("expected identified allergens in item line")
	}
	if !strings.Contains(prompt, "Green Salad [safe]") {
		t.Error("expected safe item line")
	}
}

func TestBuildAlternativePrompt(t *testing.T) {
	prompt := BuildAlternativePrompt("Pad Thai", "Pad Thai\nGreen Curry\nSpring Rolls",
		[]string{"Green Curry"}, "peanuts", "")

	if !strings.Contains(prompt, "Pad Thai") {
		t.Error("expected unsafe item name in prompt")
	}
	if !strings.Contains(prompt, "Green Curry") {
		t.Error("expected safe items in prompt")
	}
	if !strings.Contains(prompt, "one substitute") {
		t.Error("expected substitute instruction")
	}
}

func TestNewLibrary_Defaults(t *testing.T) {
	lib, err := NewLibrary("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(lib.AnalysisSystem("dairy", ""), "food-safety assistant") {
		t.Error("expected default analysis system instruction")
	}
	if !strings.Contains(lib.ChatSystem("dairy", ""), "dairy") {
		t.Error("expected allergies embedded in chat system instruction")
	}
}

func TestNewLibrary_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	content := "analysis_system: Custom analysis instruction.\nchat_system: Custom chat instruction.\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	lib, err := NewLibrary(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(lib.AnalysisSystem("dairy", ""), "Custom analysis instruction.") {
		t.Error("expected analysis override applied")
	}
	if !strings.Contains(lib.ChatSystem("dairy", ""), "Custom chat instruction.") {
		t.Error("expected chat override applied")
	}
	// Unset fields keep the defaults.
	if !strings.Contains(lib.SummarySystem(), "food-safety assistant") {
		t.Error("expected default summary instruction when not overridden")
	}
}

func TestNewLibrary_MissingFile(t *testing.T) {
	if _, err := NewLibrary("/nonexistent/prompts.yaml"); err == nil {
		t.Error("expected error for missing overrides file")
	}
}
