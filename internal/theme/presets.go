// Package theme resolves, normalizes and merges ThemeCustomization values.
//
// Every sub-field has a fallback so a partial theme, whether from the model, a
// stored record or a client patch, always renders.
package theme

import "toolsmith_server/internal/types"

// Fallbacks applied field by field when a value is missing or unusable.
const (
	DefaultPrimaryColor   = "#3B82F6"
	DefaultSecondaryColor = "#1E40AF"
	DefaultAccentColor    = "#10B981"
	DefaultFontFamily     = "Inter"
	DefaultBorderRadius   = "md"
	DefaultBrandName      = "SEO Toolkit"
	DefaultToneOfVoice    = "professional"
)

// Modern is the clean, neutral preset.
func Modern() types.ThemeCustomization {
	return types.ThemeCustomization{
		Branding: types.Branding{
			PrimaryColor:   "#3B82F6",
			SecondaryColor: "#1E293B",
			AccentColor:    "#06B6D4",
			FontFamily:     "Inter",
			BorderRadius:   "md",
			BrandName:      DefaultBrandName,
		},
		Content:    types.Content{ToneOfVoice: "professional"},
		UITemplate: types.TemplateModern,
	}
}

// Playful is the bright, rounded preset.
func Playful() types.ThemeCustomization {
	return types.ThemeCustomization{
		Branding: types.Branding{
			PrimaryColor:   "#8B5CF6",
			SecondaryColor: "#EC4899",
			AccentColor:    "#F59E0B",
			FontFamily:     "Poppins",
			BorderRadius:   "xl",
			BrandName:      DefaultBrandName,
		},
		Content:    types.Content{ToneOfVoice: "friendly"},
		UITemplate: types.TemplatePlayful,
	}
}

// DefaultCustom is the palette a custom theme falls back to entirely when the
// model cannot be reached.
func DefaultCustom() types.ThemeCustomization {
	return types.ThemeCustomization{
		Branding: types.Branding{
			PrimaryColor:   DefaultPrimaryColor,
			SecondaryColor: DefaultSecondaryColor,
			AccentColor:    DefaultAccentColor,
			FontFamily:     DefaultFontFamily,
			BorderRadius:   DefaultBorderRadius,
			BrandName:      DefaultBrandName,
		},
		Content:    types.Content{ToneOfVoice: DefaultToneOfVoice},
		UITemplate: types.TemplateCustom,
	}
}

// Preset returns the fixed theme for template, or false for templates that
// need synthesis (custom) or are unknown.
func Preset(template string) (types.ThemeCustomization, bool) {
	switch template {
	case types.TemplateModern:
		return Modern(), true
	case types.TemplatePlayful:
		return Playful(), true
	}
	return types.ThemeCustomization{}, false
}

// ValidTemplate reports whether template is one of modern, playful or custom.
func ValidTemplate(template string) bool {
	switch template {
	case types.TemplateModern, types.TemplatePlayful, types.TemplateCustom:
		return true
	}
	return false
}
