package prompts

import (
	"fmt"
	"strings"
	"text/template"
)

// ThemeSystemPrompt instructs the model to act as a brand designer.
const ThemeSystemPrompt = `You are a senior brand and UI designer. You produce cohesive, accessible color palettes and typography for small web tools.
Respond ONLY with a valid JSON object.`

var themePromptTpl = template.Must(template.New("theme_prompt").Parse(`
Design the visual identity for a web tool.

Design brief:
---
"{{.Prompt}}"
---
{{- if .ToolType}}

The tool is a "{{.ToolType}}" SEO tool; the look should suit that audience.
{{- end}}

Respond with a JSON object of this shape:
{
	"branding": {
		"primaryColor": "#RRGGBB",
		"secondaryColor": "#RRGGBB",
		"accentColor": "#RRGGBB",
		"fontFamily": "a Google Font name",
		"borderRadius": "none | sm | md | lg | xl | full",
		"brandName": "short brand name"
	},
	"content": {
		"toneOfVoice": "two or three words"
	},
	"layout": {
		"style": "short description of the layout"
	},
	"imagePrompt": "a one sentence prompt for a hero illustration in this style"
}

Primary and secondary colors must have enough contrast against white text.
`))

type themePromptData struct {
	Prompt   string
	ToolType string
}

// GetThemePrompt builds the user message for custom theme synthesis.
func GetThemePrompt(userPrompt, toolType string) (string, error) {
	sb := &strings.Builder{}
	if err := themePromptTpl.Execute(sb, themePromptData{Prompt: userPrompt, ToolType: toolType}); err != nil {
		return "", fmt.Errorf("failed to render theme prompt: %w", err)
	}
	return sb.String(), nil
}
