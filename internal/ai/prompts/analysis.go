package prompts

import "fmt"

// GetAnalysisPrompts returns the user and system messages for an analysis call.
// The output schema is deliberately left to the model; only "JSON object" is required.
func GetAnalysisPrompts(toolType, input, toolContext string) (string, string) {
	system := fmt.Sprintf(`
		You are an expert %s SEO analyst working inside a tool called by a marketer.
		Produce a comprehensive, specific and actionable analysis of the input.
		Respond ONLY with a single valid JSON object. Choose whatever structure best presents the analysis:
		numeric scores (0-100), lists of recommendations, per-item breakdowns and nested sections are all welcome.
		Use camelCase keys. Do not wrap the object in markdown.
	`, toolType)

	user := fmt.Sprintf(`
		Tool configuration:
		---
		%s
		---

		User input:
		---
		%s
		---
	`, toolContext, input)

	return user, system
}
