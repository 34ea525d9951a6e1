package render

import (
	"strings"

	"toolsmith_server/internal/types"
	"toolsmith_server/internal/utils"
)

// GenericInputName is the name of the single textarea used when a tool
// declares no fields.
const GenericInputName = "input"

// Control kinds a FieldSpec dispatches to.
const (
	ControlInput    = "input"
	ControlTextarea = "textarea"
	ControlSelect   = "select"
)

// inputTypes are the field types rendered as <input type="...">.
var inputTypes = map[string]bool{
	"text": true, "url": true, "email": true, "number": true, "tel": true, "date": true,
}

type Control struct {
	Control     string              `json:"control"`
	Name        string              `json:"name"`
	Label       string              `json:"label"`
	InputType   string              `json:"inputType,omitempty"`
	Placeholder string              `json:"placeholder,omitempty"`
	Required    bool                `json:"required"`
	Options     []types.FieldOption `json:"options,omitempty"`
	Value       string              `json:"value,omitempty"`
}

// Form is the input side of a rendered tool.
type Form struct {
	Controls   []Control `json:"controls"`
	ButtonText string    `json:"buttonText"`
	Generic    bool      `json:"generic"`
}

// BuildForm renders one control per field, or a single free-text textarea
// when the configuration has no fields.
func BuildForm(cfg types.ToolConfig) Form {
	form := Form{ButtonText: cfg.ButtonText}
	if form.ButtonText == "" {
		form.ButtonText = "Analyze"
	}

	if len(cfg.Fields) == 0 {
		form.Generic = true
		form.Controls = []Control{{
			Control:     ControlTextarea,
			Name:        GenericInputName,
			Label:       cfg.InputLabel,
			Placeholder: cfg.InputPlaceholder,
			Required:    true,
		}}
		return form
	}

	for _, f := range cfg.Fields {
		form.Controls = append(form.Controls, control(f))
	}
	return form
}

func control(f types.FieldSpec) Control {
	c := Control{
		Name:        f.Name,
		Label:       f.Label,
		Placeholder: f.Placeholder,
		Required:    f.Required,
	}
	if c.Label == "" {
		c.Label = Humanize(f.Name)
	}

	kind := strings.ToLower(strings.TrimSpace(f.Type))
	switch {
	case kind == "textarea":
		c.Control = ControlTextarea
	case kind == "select" && len(f.Options) > 0:
		c.Control = ControlSelect
		c.Options = f.Options
	case inputTypes[kind]:
		c.Control = ControlInput
		c.InputType = kind
	default:
		c.Control = ControlInput
		c.InputType = "text"
	}
	return c
}

// WithValues returns a copy of the form with submitted values filled in.
func (f Form) WithValues(values map[string]string) Form {
	out := f
	out.Controls = make([]Control, len(f.Controls))
	for i, c := range f.Controls {
		c.Value = values[c.Name]
		out.Controls[i] = c
	}
	return out
}

// CanSubmit reports whether the submit action is enabled: nothing is in
// flight and at least one value is non-blank.
func CanSubmit(values map[string]string, inFlight bool) bool {
	if inFlight {
		return false
	}
	for _, v := range values {
		if !utils.IsBlank(v) {
			return true
		}
	}
	return false
}

// Pick keeps only the values of the form's own controls.
func (f Form) Pick(values map[string]string) map[string]string {
	out := make(map[string]string, len(f.Controls))
	for _, c := range f.Controls {
		if v, ok := values[c.Name]; ok {
			out[c.Name] = strings.TrimSpace(v)
		}
	}
	return out
}

// Input shapes submitted values for the analysis call: the free text for a
// generic form, otherwise the values of the declared fields.
func (f Form) Input(values map[string]string) any {
	picked := f.Pick(values)
	if f.Generic {
		return picked[GenericInputName]
	}
	return picked
}

// ErrorResult is the synthetic result shown when an analysis fails, so the
// result area never stays empty.
func ErrorResult(message, details string) map[string]any {
	return map[string]any{
		"error":   true,
		"message": message,
		"details": details,
	}
}
