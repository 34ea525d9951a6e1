// Package build runs the cosmetic build sequence shown while a tool's theme is
// resolved, and persists the finished tool.
package build

import (
	"fmt"
	"strings"

	"toolsmith_server/internal/types"
)

// Step is one entry of the build log.
type Step struct {
	Title string   `json:"title"`
	Lines []string `json:"lines"`
	Code  string   `json:"code,omitempty"`
}

const initializingTitle = "Initializing"

var templateSteps = map[string][]Step{
	types.TemplateModern: {
		{Title: "Applying modern layout", Lines: []string{"Loading grid system", "Configuring card components"}, Code: "<main class=\"grid gap-6 md:grid-cols-2\">"},
		{Title: "Generating color system", Lines: []string{"Deriving shades from primary color", "Checking contrast ratios"}},
	},
	types.TemplatePlayful: {
		{Title: "Adding playful animations", Lines: []string{"Registering hover transitions", "Tuning bounce easing"}, Code: "transition: transform 200ms cubic-bezier(.34,1.56,.64,1);"},
		{Title: "Mixing vibrant palette", Lines: []string{"Blending gradient stops", "Picking rounded corners"}},
	},
	types.TemplateCustom: {
		{Title: "Analyzing brand brief", Lines: []string{"Reading custom design prompt", "Extracting tone and colors"}},
		{Title: "Generating custom theme", Lines: []string{"Composing branding tokens", "Validating palette"}, Code: "--primary: var(--brand-primary);"},
	},
}

var featureSteps = map[string]Step{
	"analytics": {Title: "Wiring analytics", Lines: []string{"Adding usage events"}},
	"export":    {Title: "Adding export options", Lines: []string{"Enabling PDF and CSV export"}},
	"history":   {Title: "Enabling result history", Lines: []string{"Keeping recent analyses"}},
	"share":     {Title: "Adding share links", Lines: []string{"Generating shareable URLs"}},
	"darkmode":  {Title: "Adding dark mode", Lines: []string{"Generating dark palette"}},
}

var toolTypeSteps = map[types.ToolType][]Step{
	types.ToolTypeMeta: {
		{Title: "Building meta tag analyzer", Lines: []string{"Parsing title and description rules", "Setting length limits"}, Code: "if (title.length > 60) warn(\"Title too long\");"},
		{Title: "Adding SERP preview", Lines: []string{"Rendering search snippet"}},
	},
	types.ToolTypeBlog: {
		{Title: "Building content analyzer", Lines: []string{"Loading readability metrics", "Scoring headline structure"}, Code: "const readability = fleschKincaid(text);"},
	},
	types.ToolTypeKeyword: {
		{Title: "Building keyword engine", Lines: []string{"Grouping long-tail variants", "Estimating search intent"}, Code: "keywords.sort((a, b) => b.volume - a.volume);"},
	},
	types.ToolTypeLocal: {
		{Title: "Building local SEO checker", Lines: []string{"Checking NAP consistency", "Scanning citation sources"}},
	},
	types.ToolTypeEcommerce: {
		{Title: "Building product page auditor", Lines: []string{"Inspecting product schema", "Reviewing checkout copy"}, Code: "\"@type\": \"Product\""},
	},
	types.ToolTypeGeneral: {
		{Title: "Building analysis engine", Lines: []string{"Connecting AI analysis endpoint"}},
	},
}

var finalSteps = []Step{
	{Title: "Optimizing performance", Lines: []string{"Minifying assets", "Lazy loading results"}},
	{Title: "Running final checks", Lines: []string{"Validating form fields", "Testing responsive layout"}},
	{Title: "Finalizing tool", Lines: []string{"Saving configuration"}},
}

// Steps assembles the build log: the initializing step, the template's steps,
// one step per selected feature, the tool type's steps and the fixed
// finalization steps.
func Steps(cfg types.ToolConfig, template string, features []string) []Step {
	steps := []Step{{
		Title: initializingTitle,
		Lines: []string{
			fmt.Sprintf("Creating %q", cfg.Title),
			fmt.Sprintf("Template: %s", template),
		},
	}}

	steps = append(steps, templateSteps[template]...)

	for _, f := range features {
		key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(f), " ", ""))
		if key == "" {
			continue
		}
		if s, ok := featureSteps[key]; ok {
			steps = append(steps, s)
			continue
		}
		steps = append(steps, Step{Title: "Adding " + strings.TrimSpace(f), Lines: []string{"Configuring " + strings.TrimSpace(f)}})
	}

	toolType := cfg.ToolType
	if _, ok := toolTypeSteps[toolType]; !ok {
		toolType = types.ToolTypeGeneral
	}
	steps = append(steps, toolTypeSteps[toolType]...)

	if len(cfg.Fields) > 0 {
		last := &steps[len(steps)-1]
		lines := append([]string(nil), last.Lines...)
		for _, f := range cfg.Fields {
			lines = append(lines, "Adding field "+f.Name)
		}
		last.Lines = lines
	}

	return append(steps, finalSteps...)
}
