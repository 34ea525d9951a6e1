package prompts

import "fmt"

const LogicSystemPrompt = `You are a product engineer documenting how an SEO tool should process its input.
Respond ONLY with a valid JSON object.`

// GetProcessingLogicPrompt asks for the ordered processing steps of a tool.
func GetProcessingLogicPrompt(toolConfig string) string {
	return fmt.Sprintf(`
		Tool configuration:
		---
		%s
		---

		Describe how this tool should turn its input into results. Respond with:
		{
			"steps": [{"name": "...", "description": "..."}],
			"validations": ["..."],
			"outputSections": ["..."]
		}
	`, toolConfig)
}

// GetIntentAnalysisPrompt asks who the tool is for and what they want from it.
func GetIntentAnalysisPrompt(toolConfig string) string {
	return fmt.Sprintf(`
		Tool configuration:
		---
		%s
		---

		Analyse the user intent this tool serves. Respond with:
		{
			"primaryIntent": "...",
			"audience": ["..."],
			"successCriteria": ["..."],
			"relatedTools": ["..."]
		}
	`, toolConfig)
}
