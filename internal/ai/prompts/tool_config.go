package prompts

import "fmt"

// ToolConfigSystemPrompt instructs the model to answer with a tool configuration only.
const ToolConfigSystemPrompt = `You are an expert SEO tool designer. You turn a short request into the configuration of a single-purpose web tool.
Respond ONLY with a valid JSON object. Do not include markdown, code fences or commentary.`

// GetToolConfigPrompt builds the user message for tool-config synthesis.
// toolType is the classifier's guess and is passed as a hint, not a constraint.
func GetToolConfigPrompt(userPrompt, toolType string) string {
	return fmt.Sprintf(`
		A user wants the following tool:

		---
		"%s"
		---

		Our classifier thinks this is a "%s" tool (one of: meta, blog, keyword, local, ecommerce, general).
		Use a different type only if the request clearly belongs elsewhere.

		Respond with a JSON object of exactly this shape:
		{
			"toolType": "meta | blog | keyword | local | ecommerce | general",
			"title": "short tool name",
			"description": "one sentence describing what the tool does",
			"inputLabel": "label for the main input",
			"inputPlaceholder": "example input",
			"buttonText": "call to action on the submit button",
			"resultTitle": "heading shown above the results",
			"fields": [
				{
					"name": "camelCaseName",
					"label": "Field label",
					"type": "text | textarea | select | url | number",
					"placeholder": "optional example",
					"required": true,
					"options": [{"label": "Shown", "value": "sent"}]
				}
			]
		}

		Include "options" only for select fields. Use between one and five fields.
	`, userPrompt, toolType)
}
