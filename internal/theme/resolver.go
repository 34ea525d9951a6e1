package theme

import (
	"context"
	"fmt"
	"log"

	"toolsmith_server/internal/types"
)

// Designer synthesizes a custom theme from a free-text brief.
type Designer interface {
	DesignTheme(ctx context.Context, prompt string, toolType types.ToolType) (types.ThemeCustomization, error)
}

// Resolver turns a template choice into a complete theme.
type Resolver struct {
	designer Designer
}

func NewResolver(designer Designer) *Resolver {
	return &Resolver{designer: designer}
}

// Resolve returns the preset for modern and playful without any network call.
// For custom it asks the designer once; on failure it falls back to the
// default custom palette and returns a non-empty warning instead of an error.
// The error return is reserved for unknown templates and cancelled contexts.
func (r *Resolver) Resolve(ctx context.Context, template, prompt string, toolType types.ToolType) (types.ThemeCustomization, string, error) {
	if t, ok := Preset(template); ok {
		return t, "", nil
	}
	if template != types.TemplateCustom {
		return types.ThemeCustomization{}, "", fmt.Errorf("unknown ui template %q", template)
	}

	fallback := DefaultCustom()
	fallback.CustomPrompt = prompt

	if r.designer == nil {
		return fallback, "custom theme generation is unavailable, using the default palette", nil
	}

	t, err := r.designer.DesignTheme(ctx, prompt, toolType)
	if err != nil {
		if ctx.Err() != nil {
			return types.ThemeCustomization{}, "", ctx.Err()
		}
		log.Printf("WARN: custom theme generation failed, using default palette: %v", err)
		return fallback, "Could not generate a custom theme, using the default palette instead.", nil
	}

	t.UITemplate = types.TemplateCustom
	t.CustomPrompt = prompt
	return Normalize(t), "", nil
}
