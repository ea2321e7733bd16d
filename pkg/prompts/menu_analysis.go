package prompts

import (
	"fmt"
	"strings"

	"github.com/menuguard/menuguard-engine/pkg/models"
)

// defaultAnalysisSystem is the base instruction for menu safety classification.
const defaultAnalysisSystem = `You are a food-safety assistant that reviews restaurant menus for diners with allergies and dietary restrictions. You classify every menu item conservatively: when ingredients are ambiguous or cross-contamination is plausible, prefer "caution" over "safe". You never invent menu items that are not present in the input.`

// defaultSummarySystem is the base instruction for prose summaries of a classification.
const defaultSummarySystem = `You are a food-safety assistant. You write short, friendly summaries of menu analysis results, highlighting what the diner can safely order. You do not repeat the full item list; you call out the best options and the main risks.`

// defaultAlternativeSystem is the base instruction for suggesting a substitute dish.
const defaultAlternativeSystem = `You are a food-safety assistant. Given a menu item that is unsafe for a diner, you suggest a single realistic substitute from the same menu, or a simple modification of the unsafe item, and explain briefly why it is safer.`

// defaultChatSystem is the base instruction for follow-up conversation turns.
const defaultChatSystem = `You are a food-safety assistant answering follow-up questions about a restaurant menu analysis. Answer concisely and practically. If you are not certain an item is safe for the diner's allergies, say so and recommend asking the restaurant staff.`

// BuildAnalysisSystemMessage returns the system instruction for menu classification,
// embedding the diner's allergy and preference profile.
func BuildAnalysisSystemMessage(base, allergies, preferences string) string {
	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteString("\n\n")
	writeProfile(&sb, allergies, preferences)
	sb.WriteString("\nRespond with a JSON array only. Each element must have exactly these fields:\n")
	sb.WriteString(`- "itemName": the menu item name as written on the menu` + "\n")
	sb.WriteString(`- "safetyLevel": one of "safe", "caution", "unsafe"` + "\n")
	sb.WriteString(`- "reasoning": one or two sentences explaining the classification` + "\n")
	sb.WriteString(`- "identifiedAllergens": array of the diner's allergens found or suspected in the item (may be empty)` + "\n")
	sb.WriteString("\nReturn ONLY the JSON array, no additional text. If the menu contains no items, return [].\n")
	return sb.String()
}

// BuildAnalysisPrompt wraps the raw menu text for classification.
func BuildAnalysisPrompt(menuText string) string {
	var sb strings.Builder
	sb.WriteString("Classify every item on the following menu.\n\n")
	sb.WriteString("## Menu\n\n")
	sb.WriteString(menuText)
	sb.WriteString("\n")
	return sb.String()
}

// BuildImageAnalysisPrompt is the user prompt sent alongside a menu photo.
func BuildImageAnalysisPrompt() string {
	return "The attached image is a photo of a restaurant menu. Read every menu item from the image and classify each one."
}

// BuildSummaryPrompt renders an analysis result list into a summary request.
func BuildSummaryPrompt(results []models.AnalysisResultItem, allergies, preferences string) string {
	var sb strings.Builder
	writeProfile(&sb, allergies, preferences)
	sb.WriteString("\n## Analysis Results\n\n")
	for _, item := range results {
		sb.WriteString(fmt.Sprintf("- %s [%s]", item.ItemName, item.SafetyLevel))
		if len(item.IdentifiedAllergens) > 0 {
			sb.WriteString(fmt.Sprintf(" (allergens: %s)", strings.Join(item.IdentifiedAllergens, ", ")))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\nWrite a short summary (3-4 sentences) of what this diner can safely order here and what to avoid.\n")
	return sb.String()
}

// BuildAlternativePrompt asks for a substitute for one unsafe item.
func BuildAlternativePrompt(unsafeItem, menuContext string, safeItems []string, allergies, preferences string) string {
	var sb strings.Builder
	writeProfile(&sb, allergies, preferences)
	sb.WriteString(fmt.Sprintf("\nThe diner wanted to order: %s\n", unsafeItem))
	sb.WriteString("This item was classified as unsafe for them.\n")
	if len(safeItems) > 0 {
		sb.WriteString("\nItems already classified as safe on this menu:\n")
		for _, item := range safeItems {
			sb.WriteString(fmt.Sprintf("- %s\n", item))
		}
	}
	if menuContext != "" {
		sb.WriteString("\n## Menu\n\n")
		sb.WriteString(menuContext)
		sb.WriteString("\n")
	}
	sb.WriteString("\nSuggest one substitute and briefly explain why it is a safer choice. Respond in plain prose, 2-3 sentences.\n")
	return sb.String()
}

// BuildChatSystemMessage returns the system instruction for follow-up chat,
// embedding the diner's profile so each turn stays grounded in it.
func BuildChatSystemMessage(base, allergies, preferences string) string {
	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteString("\n\n")
	writeProfile(&sb, allergies, preferences)
	return sb.String()
}

func writeProfile(sb *strings.Builder, allergies, preferences string) {
	sb.WriteString("## Diner Profile\n\n")
	sb.WriteString(fmt.Sprintf("Allergies: %s\n", allergies))
	if preferences != "" {
		sb.WriteString(fmt.Sprintf("Dietary preferences: %s\n", preferences))
	}
}
