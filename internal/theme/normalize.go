package theme

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"toolsmith_server/internal/types"
)

var (
	hexColor   = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	funcColor  = regexp.MustCompile(`^(?:rgb|rgba|hsl|hsla)\(\s*[0-9.%,\s/]+\)$`)
	namedColor = regexp.MustCompile(`^[a-zA-Z]{3,20}$`)
	fontName   = regexp.MustCompile(`^[a-zA-Z0-9 ,'"\-]{1,60}$`)
)

var radii = map[string]bool{"none": true, "sm": true, "md": true, "lg": true, "xl": true, "full": true}

// ValidColor accepts hex, rgb()/hsl() and plain named CSS colors.
func ValidColor(c string) bool {
	c = strings.TrimSpace(c)
	return hexColor.MatchString(c) || funcColor.MatchString(c) || namedColor.MatchString(c)
}

// ValidFont rejects anything that could escape a CSS font-family declaration.
func ValidFont(f string) bool {
	return fontName.MatchString(strings.TrimSpace(f))
}

// ValidRadius reports whether r is one of none, sm, md, lg, xl, full.
func ValidRadius(r string) bool {
	return radii[r]
}

// Normalize fills every missing or unusable sub-field with its default.
func Normalize(t types.ThemeCustomization) types.ThemeCustomization {
	b := &t.Branding
	b.PrimaryColor = colorOr(b.PrimaryColor, DefaultPrimaryColor)
	b.SecondaryColor = colorOr(b.SecondaryColor, DefaultSecondaryColor)
	b.AccentColor = colorOr(b.AccentColor, DefaultAccentColor)
	if !ValidFont(b.FontFamily) {
		b.FontFamily = DefaultFontFamily
	}
	b.FontFamily = strings.TrimSpace(b.FontFamily)
	if !ValidRadius(b.BorderRadius) {
		b.BorderRadius = DefaultBorderRadius
	}
	if strings.TrimSpace(b.BrandName) == "" {
		b.BrandName = DefaultBrandName
	}
	b.BrandName = strings.TrimSpace(b.BrandName)
	if strings.TrimSpace(t.Content.ToneOfVoice) == "" {
		t.Content.ToneOfVoice = DefaultToneOfVoice
	}
	if !ValidTemplate(t.UITemplate) {
		t.UITemplate = types.TemplateModern
	}
	return t
}

func colorOr(c, fallback string) string {
	if ValidColor(c) {
		return strings.TrimSpace(c)
	}
	return fallback
}

// Candidate locations for each field in model output. Models drift between
// nested, flat and "colors" shaped answers.
var fieldPaths = map[string][]string{
	"primaryColor":   {"branding.primaryColor", "theme.primaryColor", "colors.primary", "primaryColor"},
	"secondaryColor": {"branding.secondaryColor", "theme.secondaryColor", "colors.secondary", "secondaryColor"},
	"accentColor":    {"branding.accentColor", "theme.accentColor", "colors.accent", "accentColor"},
	"fontFamily":     {"branding.fontFamily", "theme.fontFamily", "typography.fontFamily", "fontFamily"},
	"borderRadius":   {"branding.borderRadius", "theme.borderRadius", "layout.borderRadius", "borderRadius"},
	"brandName":      {"branding.brandName", "brandName", "name"},
	"toneOfVoice":    {"content.toneOfVoice", "toneOfVoice", "tone"},
}

func lookup(raw, field string) string {
	for _, path := range fieldPaths[field] {
		if r := gjson.Get(raw, path); r.Type == gjson.String && strings.TrimSpace(r.Str) != "" {
			return r.Str
		}
	}
	return ""
}

// FromModelJSON merges a model's theme answer over the defaults. Each branding
// field is taken independently, so a partially valid answer still yields a
// complete theme.
func FromModelJSON(raw, template, customPrompt string) types.ThemeCustomization {
	t := types.ThemeCustomization{
		Branding: types.Branding{
			PrimaryColor:   lookup(raw, "primaryColor"),
			SecondaryColor: lookup(raw, "secondaryColor"),
			AccentColor:    lookup(raw, "accentColor"),
			FontFamily:     lookup(raw, "fontFamily"),
			BorderRadius:   strings.ToLower(lookup(raw, "borderRadius")),
			BrandName:      lookup(raw, "brandName"),
		},
		Content:      types.Content{ToneOfVoice: lookup(raw, "toneOfVoice")},
		UITemplate:   template,
		CustomPrompt: customPrompt,
	}
	return Normalize(t)
}

// Merge applies a partial JSON theme onto base. Fields absent from the patch
// keep their current value; present fields must be valid.
func Merge(base types.ThemeCustomization, patch []byte) (types.ThemeCustomization, error) {
	merged := base
	if err := json.Unmarshal(patch, &merged); err != nil {
		return base, fmt.Errorf("invalid theme patch: %w", err)
	}
	if err := Validate(merged); err != nil {
		return base, err
	}
	return Normalize(merged), nil
}

// Validate reports the first non-empty field holding an unusable value.
// Empty fields are fine; Normalize defaults them.
func Validate(t types.ThemeCustomization) error {
	b := t.Branding
	for name, c := range map[string]string{
		"primaryColor":   b.PrimaryColor,
		"secondaryColor": b.SecondaryColor,
		"accentColor":    b.AccentColor,
	} {
		if c != "" && !ValidColor(c) {
			return fmt.Errorf("branding.%s: %q is not a CSS color", name, c)
		}
	}
	if b.FontFamily != "" && !ValidFont(b.FontFamily) {
		return fmt.Errorf("branding.fontFamily: %q is not an allowed font name", b.FontFamily)
	}
	if b.BorderRadius != "" && !ValidRadius(b.BorderRadius) {
		return fmt.Errorf("branding.borderRadius: %q must be one of none, sm, md, lg, xl, full", b.BorderRadius)
	}
	if t.UITemplate != "" && !ValidTemplate(t.UITemplate) {
		return fmt.Errorf("uiTemplate: %q must be one of modern, playful, custom", t.UITemplate)
	}
	return nil
}

// ImagePrompt extracts the optional hero image prompt from a model answer.
func ImagePrompt(raw string) string {
	return gjson.Get(raw, "imagePrompt").String()
}
