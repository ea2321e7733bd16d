package menufetch

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// strictPolicy strips every tag, leaving text content only.
	strictPolicy = bluemonday.StrictPolicy()

	scriptRe     = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	styleRe      = regexp.MustCompile(`(?is)<style\b.*?</style>`)
	blockBreakRe = regexp.MustCompile(`(?i)<(?:/p|/div|/li|/tr|/h[1-6]|br\s*/?)>`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
	spacesRe     = regexp.MustCompile(`[ \t]+`)
)

// ExtractText reduces an HTML page to plain text. Script and style bodies
// are removed entirely, block boundaries become line breaks, and entities
// are decoded after sanitization.
func ExtractText(rawHTML string) string {
	cleaned := scriptRe.ReplaceAllString(rawHTML, " ")
	cleaned = styleRe.ReplaceAllString(cleaned, " ")
	cleaned = blockBreakRe.ReplaceAllString(cleaned, "\n")

	text := strictPolicy.Sanitize(cleaned)
	text = html.UnescapeString(text)

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(spacesRe.ReplaceAllString(line, " "))
		if line != "" {
			lines = append(lines, line)
		}
	}

	return blankLinesRe.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
}
