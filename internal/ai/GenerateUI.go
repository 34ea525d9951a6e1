package ai

import (
	"context"
	"log"

	"toolsmith_server/internal/ai/prompts"
	"toolsmith_server/internal/theme"
	"toolsmith_server/internal/types"
)

const stageTheme = "ui customization"

// UIResult is the outcome of generate-ui.
type UIResult struct {
	Customizations types.ThemeCustomization `json:"customizations"`
	ImagePrompt    string                   `json:"imagePrompt"`
	Debug          Debug                    `json:"debug"`
}

// GenerateUI synthesizes a custom theme. With no credential, or when the call or
// parse fails, it answers with the deterministic keyword-based mock instead of an error.
func (g *Generator) GenerateUI(ctx context.Context, userPrompt string, toolType types.ToolType) UIResult {
	raw, debug, err := g.themeJSON(ctx, userPrompt, toolType)
	if err != nil {
		log.Printf("WARN: %s falling back to mock theme: %v", stageTheme, err)
		mock, imagePrompt := theme.MockFromPrompt(userPrompt, toolType)
		debug.Fallback = true
		debug.Warning = err.Error()
		return UIResult{Customizations: mock, ImagePrompt: imagePrompt, Debug: debug}
	}

	customizations := theme.FromModelJSON(raw, types.TemplateCustom, userPrompt)
	imagePrompt := theme.ImagePrompt(raw)
	if imagePrompt == "" {
		_, imagePrompt = theme.MockFromPrompt(userPrompt, toolType)
	}
	return UIResult{Customizations: customizations, ImagePrompt: imagePrompt, Debug: debug}
}

// DesignTheme satisfies theme.Designer: unlike GenerateUI it reports failures so
// the resolver can apply its own fallback.
func (g *Generator) DesignTheme(ctx context.Context, userPrompt string, toolType types.ToolType) (types.ThemeCustomization, error) {
	raw, _, err := g.themeJSON(ctx, userPrompt, toolType)
	if err != nil {
		return types.ThemeCustomization{}, err
	}
	return theme.FromModelJSON(raw, types.TemplateCustom, userPrompt), nil
}

func (g *Generator) themeJSON(ctx context.Context, userPrompt string, toolType types.ToolType) (string, Debug, error) {
	user, err := prompts.GetThemePrompt(userPrompt, string(toolType))
	if err != nil {
		return "", Debug{Stage: stageTheme, Model: g.model}, err
	}
	content, debug, err := g.completeJSON(ctx, stageTheme, prompts.ThemeSystemPrompt, user, 0.7)
	if err != nil {
		return "", debug, err
	}
	obj, err := objectOrParseError(stageTheme, content)
	return obj, debug, err
}
