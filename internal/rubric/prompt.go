package rubric

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Used when a template has no guidance file of its own.
var defaultGuidance = map[string]string{
	LangRust: `Additional guidance for Rust projects:
- Check for #[near_bindgen] attribute on contract structs
- Look for near-sdk-rs imports and usage
- Examine initialization and state management patterns`,
	LangJavaScript: `Additional guidance for JavaScript/TypeScript projects:
- Check for near-api-js or near-sdk-js imports
- Look for wallet connection implementations
- Examine contract call patterns and transaction signing`,
}

// Templates that never get the default language guidance.
var languageAgnostic = map[string]bool{
	"team_activity": true,
	"ecosystem_fit": true,
}

// templateKey finds the template for category: exact name, else the first template
// (sorted) whose name the category ends with.
func (c *Catalog) templateKey(category string) string {
	if _, ok := c.templates[category]; ok {
		return category
	}
	for _, key := range sortedKeys(c.templates) {
		if strings.HasSuffix(category, key) {
			return key
		}
	}
	return ""
}

// Prompt returns the evaluation prompt of category, with rust or javascript guidance
// appended when projectType asks for it.
func (c *Catalog) Prompt(category, projectType string) string {
	key := c.templateKey(category)
	var b strings.Builder
	if key == "" {
		logrus.Warnf("No prompt template for category %s, using fallback", category)
		fmt.Fprintf(&b, "No prompt template available for category: %s.", category)
	} else {
		b.WriteString(c.templates[key])
	}

	if lang := NormalizeProjectType(projectType); lang == LangRust || lang == LangJavaScript {
		if text := c.guidanceFor(key, lang); text != "" {
			b.WriteString("\n\n")
			b.WriteString(text)
		}
	}
	return b.String()
}

func (c *Catalog) guidanceFor(key, lang string) string {
	if text, ok := c.guidance[key][lang]; ok {
		return text
	}
	if languageAgnostic[key] {
		return ""
	}
	return defaultGuidance[lang]
}
