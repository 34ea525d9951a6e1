package theme

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"toolsmith_server/internal/types"
)

type palette struct {
	name                       string
	keywords                   []string
	primary, secondary, accent string
}

type style struct {
	name     string
	keywords []string
	font     string
	radius   string
	tone     string
}

// Checked in order; the first palette and the first style mentioned win.
var palettes = []palette{
	{"blue", []string{"blue", "navy", "ocean", "sky"}, "#2563EB", "#1E3A8A", "#38BDF8"},
	{"green", []string{"green", "eco", "nature", "forest"}, "#16A34A", "#14532D", "#84CC16"},
	{"red", []string{"red", "fire", "crimson"}, "#DC2626", "#7F1D1D", "#F97316"},
	{"purple", []string{"purple", "violet", "lavender"}, "#7C3AED", "#4C1D95", "#EC4899"},
	{"orange", []string{"orange", "sunset", "warm"}, "#EA580C", "#7C2D12", "#FACC15"},
	{"pink", []string{"pink", "rose"}, "#DB2777", "#831843", "#A855F7"},
	{"dark", []string{"dark", "black", "night"}, "#111827", "#374151", "#F59E0B"},
}

var styles = []style{
	{"playful", []string{"playful", "fun", "kids", "colorful"}, "Poppins", "xl", "friendly and upbeat"},
	{"minimal", []string{"minimal", "clean", "simple"}, "Inter", "sm", "clear and concise"},
	{"professional", []string{"professional", "corporate", "business", "enterprise"}, "IBM Plex Sans", "md", "professional"},
	{"elegant", []string{"elegant", "luxury", "premium"}, "Playfair Display", "lg", "refined"},
	{"bold", []string{"bold", "strong", "loud"}, "Montserrat", "none", "confident"},
}

var quotedName = regexp.MustCompile(`"([^"]{2,40})"|(?:called|named)\s+([A-Z][\w&'-]*(?:\s+[A-Z][\w&'-]*){0,3})`)

// MockFromPrompt derives a theme and hero image prompt from plain keyword
// sniffing. It is used when no provider credential is configured or the
// provider call fails, and never touches the network.
func MockFromPrompt(prompt string, toolType types.ToolType) (types.ThemeCustomization, string) {
	words := wordSet(prompt)

	p := palette{name: "blue", primary: DefaultPrimaryColor, secondary: DefaultSecondaryColor, accent: DefaultAccentColor}
	for _, candidate := range palettes {
		if containsAny(words, candidate.keywords) {
			p = candidate
			break
		}
	}

	s := style{name: "modern", font: DefaultFontFamily, radius: DefaultBorderRadius, tone: DefaultToneOfVoice}
	for _, candidate := range styles {
		if containsAny(words, candidate.keywords) {
			s = candidate
			break
		}
	}

	brand := brandFromPrompt(prompt, toolType)

	t := types.ThemeCustomization{
		Branding: types.Branding{
			PrimaryColor:   p.primary,
			SecondaryColor: p.secondary,
			AccentColor:    p.accent,
			FontFamily:     s.font,
			BorderRadius:   s.radius,
			BrandName:      brand,
		},
		Content:      types.Content{ToneOfVoice: s.tone},
		UITemplate:   types.TemplateCustom,
		CustomPrompt: prompt,
	}
	imagePrompt := fmt.Sprintf("A %s hero illustration for %s using %s tones", s.name, brand, p.name)
	return Normalize(t), imagePrompt
}

func wordSet(s string) map[string]bool {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func containsAny(words map[string]bool, keywords []string) bool {
	for _, kw := range keywords {
		if words[kw] {
			return true
		}
	}
	return false
}

func brandFromPrompt(prompt string, toolType types.ToolType) string {
	if m := quotedName.FindStringSubmatch(prompt); m != nil {
		for _, g := range m[1:] {
			if g != "" {
				return strings.TrimSpace(g)
			}
		}
	}
	switch toolType {
	case types.ToolTypeMeta:
		return "Meta Tag Studio"
	case types.ToolTypeBlog:
		return "Blog Idea Lab"
	case types.ToolTypeKeyword:
		return "Keyword Compass"
	case types.ToolTypeLocal:
		return "Local SEO Hub"
	case types.ToolTypeEcommerce:
		return "Shop Optimizer"
	}
	return DefaultBrandName
}
