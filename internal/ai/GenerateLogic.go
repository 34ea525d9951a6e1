package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"toolsmith_server/internal/ai/prompts"
	"toolsmith_server/internal/types"
)

const (
	stageProcessingLogic = "processing logic"
	stageIntentAnalysis  = "intent analysis"
)

// LogicResult is the outcome of generate-logic.
type LogicResult struct {
	ProcessingLogic json.RawMessage `json:"processingLogic"`
	IntentAnalysis  json.RawMessage `json:"intentAnalysis"`
	Debug           []Debug         `json:"debug"`
}

// GenerateLogic makes two independent round trips, concurrently. Each one that
// fails is replaced by a fallback derived from the configuration; only
// cancellation of ctx fails the whole call.
func (g *Generator) GenerateLogic(ctx context.Context, toolConfig types.ToolConfig) (LogicResult, error) {
	cfgJSON, err := json.MarshalIndent(toolConfig, "", "  ")
	if err != nil {
		return LogicResult{}, fmt.Errorf("failed to encode tool configuration: %w", err)
	}

	var result LogicResult
	var logicDebug, intentDebug Debug

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		result.ProcessingLogic, logicDebug, err = g.logicPart(egCtx, stageProcessingLogic, prompts.GetProcessingLogicPrompt(string(cfgJSON)), fallbackProcessingLogic(toolConfig))
		return err
	})
	eg.Go(func() (err error) {
		result.IntentAnalysis, intentDebug, err = g.logicPart(egCtx, stageIntentAnalysis, prompts.GetIntentAnalysisPrompt(string(cfgJSON)), fallbackIntent(toolConfig))
		return err
	})
	if err := eg.Wait(); err != nil {
		return LogicResult{}, err
	}

	result.Debug = []Debug{logicDebug, intentDebug}
	return result, nil
}

func (g *Generator) logicPart(ctx context.Context, stage, user string, fallback map[string]any) (json.RawMessage, Debug, error) {
	content, debug, err := g.completeJSON(ctx, stage, prompts.LogicSystemPrompt, user, 0.3)
	if err == nil {
		var obj string
		if obj, err = objectOrParseError(stage, content); err == nil {
			return json.RawMessage(obj), debug, nil
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, debug, ctxErr
	}

	log.Printf("WARN: %s falling back to defaults: %v", stage, err)
	debug.Fallback = true
	debug.Warning = err.Error()
	b, _ := json.Marshal(fallback)
	return b, debug, nil
}

func fallbackProcessingLogic(cfg types.ToolConfig) map[string]any {
	steps := []map[string]string{
		{"name": "Validate input", "description": "Check that " + inputNames(cfg) + " are present."},
		{"name": "Analyze", "description": "Run the " + string(cfg.ToolType) + " analysis for " + cfg.Title + "."},
		{"name": "Present results", "description": "Show " + cfg.ResultTitle + " with scores and recommendations."},
	}
	return map[string]any{
		"steps":          steps,
		"validations":    []string{"input must not be blank"},
		"outputSections": []string{"score", "recommendations"},
	}
}

func fallbackIntent(cfg types.ToolConfig) map[string]any {
	return map[string]any{
		"primaryIntent":   cfg.Description,
		"audience":        []string{"marketers", "site owners"},
		"successCriteria": []string{"actionable recommendations"},
		"relatedTools":    []string{},
	}
}

func inputNames(cfg types.ToolConfig) string {
	if len(cfg.Fields) == 0 {
		return "the " + cfg.InputLabel
	}
	names := ""
	for i, f := range cfg.Fields {
		if i > 0 {
			names += ", "
		}
		names += f.Label
	}
	return names
}
