package ai

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/tidwall/gjson"

	"toolsmith_server/internal/ai/prompts"
	aiutils "toolsmith_server/internal/ai/utils"
	"toolsmith_server/internal/classifier"
	"toolsmith_server/internal/types"
	"toolsmith_server/internal/utils"
)

const stageToolConfig = "tool configuration"

// GenerateToolConfig synthesizes a ToolConfig from a prompt in one round trip.
// The classifier's tag is sent as a hint and used when the model omits the type.
func (g *Generator) GenerateToolConfig(ctx context.Context, userPrompt string) (types.ToolConfig, Debug, error) {
	hint := classifier.Classify(userPrompt)
	log.Printf("Generating tool configuration (hint: %s)", hint)

	content, debug, err := g.completeJSON(ctx, stageToolConfig, prompts.ToolConfigSystemPrompt, prompts.GetToolConfigPrompt(userPrompt, string(hint)), 0.4)
	if err != nil {
		return types.ToolConfig{}, debug, err
	}

	obj, err := aiutils.FindObject(content, "title", "toolConfig", "config", "tool")
	if err != nil {
		return types.ToolConfig{}, debug, &ParseError{Stage: stageToolConfig, Raw: utils.Truncate(content, rawExcerptLen), Err: err}
	}
	cfg := decodeToolConfig(obj)
	if strings.TrimSpace(cfg.Title) == "" {
		return types.ToolConfig{}, debug, &ParseError{Stage: stageToolConfig, Raw: utils.Truncate(content, rawExcerptLen), Err: errors.New("configuration has no title")}
	}

	return completeToolConfig(cfg, hint), debug, nil
}

// decodeToolConfig reads the configuration field by field. Values of the wrong
// JSON type are read loosely or dropped, never fatal: options may be bare
// strings and booleans may arrive as "true".
func decodeToolConfig(obj gjson.Result) types.ToolConfig {
	cfg := types.ToolConfig{
		ToolType:         types.ToolType(scalar(obj.Get("toolType"))),
		Title:            scalar(obj.Get("title")),
		Description:      scalar(obj.Get("description")),
		InputLabel:       scalar(obj.Get("inputLabel")),
		InputPlaceholder: scalar(obj.Get("inputPlaceholder")),
		ButtonText:       scalar(obj.Get("buttonText")),
		ResultTitle:      scalar(obj.Get("resultTitle")),
	}

	for _, f := range arrayOf(obj.Get("fields")) {
		if !f.IsObject() {
			log.Printf("WARN: dropping tool field that is not an object: %s", utils.Truncate(f.Raw, 80))
			continue
		}
		field := types.FieldSpec{
			Name:        scalar(f.Get("name")),
			Label:       scalar(f.Get("label")),
			Type:        strings.ToLower(scalar(f.Get("type"))),
			Placeholder: scalar(f.Get("placeholder")),
			Required:    f.Get("required").Bool(),
		}
		for _, o := range arrayOf(f.Get("options")) {
			if opt, ok := decodeOption(o); ok {
				field.Options = append(field.Options, opt)
			}
		}
		cfg.Fields = append(cfg.Fields, field)
	}
	return cfg
}

// decodeOption accepts {"label","value"} objects (either half may be missing)
// as well as bare strings and numbers.
func decodeOption(o gjson.Result) (types.FieldOption, bool) {
	var opt types.FieldOption
	if o.IsObject() {
		opt = types.FieldOption{Label: scalar(o.Get("label")), Value: scalar(o.Get("value"))}
	} else {
		s := scalar(o)
		opt = types.FieldOption{Label: s, Value: s}
	}
	if opt.Value == "" {
		opt.Value = opt.Label
	}
	if opt.Label == "" {
		opt.Label = opt.Value
	}
	return opt, opt.Value != ""
}

// arrayOf is v's elements, or nothing when v is not an array.
func arrayOf(v gjson.Result) []gjson.Result {
	if !v.IsArray() {
		return nil
	}
	return v.Array()
}

// scalar is the text of a string, number or boolean, and "" for anything else.
func scalar(v gjson.Result) string {
	switch v.Type {
	case gjson.String, gjson.Number, gjson.True, gjson.False:
		return strings.TrimSpace(v.String())
	}
	return ""
}

// completeToolConfig fills copy the model left out and drops unusable fields.
func completeToolConfig(cfg types.ToolConfig, hint types.ToolType) types.ToolConfig {
	cfg.ToolType = types.ToolType(strings.ToLower(string(cfg.ToolType)))
	if !cfg.ToolType.Valid() {
		cfg.ToolType = hint
	}
	if cfg.InputLabel == "" {
		cfg.InputLabel = "Your input"
	}
	if cfg.ButtonText == "" {
		cfg.ButtonText = "Analyze"
	}
	if cfg.ResultTitle == "" {
		cfg.ResultTitle = "Results"
	}

	fields := cfg.Fields[:0]
	for _, f := range cfg.Fields {
		if strings.TrimSpace(f.Name) == "" {
			continue
		}
		if f.Label == "" {
			f.Label = f.Name
		}
		if f.Type == "" {
			f.Type = "text"
		}
		fields = append(fields, f)
	}
	cfg.Fields = fields
	if len(cfg.Fields) == 0 {
		cfg.Fields = nil
	}
	return cfg
}
