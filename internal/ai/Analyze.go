package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"toolsmith_server/internal/ai/prompts"
	"toolsmith_server/internal/types"
)

const stageAnalysis = "analysis"

// Analyze sends the user's input plus the tool configuration for context and
// returns whatever JSON object the model produced.
func (g *Generator) Analyze(ctx context.Context, toolType types.ToolType, input any, toolConfig *types.ToolConfig) (types.AnalysisResult, Debug, error) {
	if !toolType.Valid() {
		toolType = types.ToolTypeGeneral
	}

	contextJSON := "{}"
	if toolConfig != nil {
		b, err := json.MarshalIndent(toolConfig, "", "  ")
		if err != nil {
			return nil, Debug{Stage: stageAnalysis}, fmt.Errorf("failed to encode tool configuration: %w", err)
		}
		contextJSON = string(b)
	}

	user, system := prompts.GetAnalysisPrompts(string(toolType), FormatInput(input), contextJSON)
	content, debug, err := g.completeJSON(ctx, stageAnalysis, system, user, 0.5)
	if err != nil {
		return nil, debug, err
	}

	obj, err := objectOrParseError(stageAnalysis, content)
	if err != nil {
		return nil, debug, err
	}
	return types.AnalysisResult(obj), debug, nil
}

// FormatInput renders free text or field values as a prompt block.
// Field values are listed in name order so prompts are stable.
func FormatInput(input any) string {
	switch v := input.(type) {
	case string:
		return v
	case map[string]string:
		names := make([]string, 0, len(v))
		for name := range v {
			names = append(names, name)
		}
		sort.Strings(names)
		var sb strings.Builder
		for _, name := range names {
			fmt.Fprintf(&sb, "%s: %s\n", name, v[name])
		}
		return strings.TrimRight(sb.String(), "\n")
	case map[string]any:
		flat := make(map[string]string, len(v))
		for name, value := range v {
			if s, ok := value.(string); ok {
				flat[name] = s
				continue
			}
			b, _ := json.Marshal(value)
			flat[name] = string(b)
		}
		return FormatInput(flat)
	case nil:
		return ""
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}
