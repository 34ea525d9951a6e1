package types

import "encoding/json"

// ToolType is the category tag a prompt is classified into.
type ToolType string

const (
	ToolTypeMeta      ToolType = "meta"
	ToolTypeBlog      ToolType = "blog"
	ToolTypeKeyword   ToolType = "keyword"
	ToolTypeLocal     ToolType = "local"
	ToolTypeEcommerce ToolType = "ecommerce"
	ToolTypeGeneral   ToolType = "general"
)

// Valid reports whether t is one of the known tool types.
func (t ToolType) Valid() bool {
	switch t {
	case ToolTypeMeta, ToolTypeBlog, ToolTypeKeyword, ToolTypeLocal, ToolTypeEcommerce, ToolTypeGeneral:
		return true
	}
	return false
}

// ToolConfig describes a generated single-purpose tool: its copy and its inputs.
type ToolConfig struct {
	ToolType         ToolType    `json:"toolType"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	InputLabel       string      `json:"inputLabel"`
	InputPlaceholder string      `json:"inputPlaceholder"`
	ButtonText       string      `json:"buttonText"`
	ResultTitle      string      `json:"resultTitle"`
	Fields           []FieldSpec `json:"fields,omitempty"`
}

// FieldSpec is one input control of a tool form.
type FieldSpec struct {
	Name        string        `json:"name"`
	Label       string        `json:"label"`
	Type        string        `json:"type"` // text, textarea, select, url, number...
	Placeholder string        `json:"placeholder,omitempty"`
	Required    bool          `json:"required"`
	Options     []FieldOption `json:"options,omitempty"`
}

type FieldOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// UI templates a theme can be resolved from.
const (
	TemplateModern  = "modern"
	TemplatePlayful = "playful"
	TemplateCustom  = "custom"
)

// ThemeCustomization holds the visual branding applied to a rendered tool.
type ThemeCustomization struct {
	Branding     Branding `json:"branding"`
	Content      Content  `json:"content"`
	UITemplate   string   `json:"uiTemplate"`
	CustomPrompt string   `json:"customPrompt,omitempty"`
}

type Branding struct {
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
	AccentColor    string `json:"accentColor"`
	FontFamily     string `json:"fontFamily"`
	BorderRadius   string `json:"borderRadius"` // none, sm, md, lg, xl, full
	BrandName      string `json:"brandName"`
}

type Content struct {
	ToneOfVoice string `json:"toneOfVoice"`
}

// HistoryEntry is the persisted record of one generated tool.
type HistoryEntry struct {
	ID             string             `json:"id"`
	Prompt         string             `json:"prompt"`
	Date           string             `json:"date"` // RFC 3339
	ToolConfig     ToolConfig         `json:"toolConfig"`
	Customizations ThemeCustomization `json:"customizations"`
}

// AnalysisResult is whatever JSON object the model returned for an analysis.
// It has no fixed shape and is never persisted.
type AnalysisResult = json.RawMessage
