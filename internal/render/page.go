package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"log"
	"math"
	"strings"

	"github.com/yuin/goldmark"

	"toolsmith_server/internal/theme"
	"toolsmith_server/internal/types"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var radiusCSS = map[string]string{
	"none": "0", "sm": "4px", "md": "8px", "lg": "12px", "xl": "16px", "full": "9999px",
}

// Page is everything the tool page template needs.
type Page struct {
	ID     string
	Config types.ToolConfig
	Theme  types.ThemeCustomization
	Form   Form
	View   *View
	Error  string
	Action string // form target; empty posts back to the same URL
}

// NewPage assembles the page for a stored tool with an empty form.
func NewPage(entry types.HistoryEntry) Page {
	return Page{
		ID:     entry.ID,
		Config: entry.ToolConfig,
		Theme:  theme.Normalize(entry.Customizations),
		Form:   BuildForm(entry.ToolConfig),
	}
}

type bar struct {
	Label   string
	Value   float64
	Percent float64
}

// Renderer executes the tool page template.
type Renderer struct {
	tmpl *template.Template
	md   goldmark.Markdown
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{md: goldmark.New()}
	tmpl, err := template.New("tool").Funcs(template.FuncMap{
		"css":      cssValue,
		"radius":   cssRadius,
		"markdown": r.markdown,
		"number":   FormatNumber,
		"percent":  cssPercent,
		"opacity":  cssOpacity,
		"bars":     bars,
		"deref":    func(n *float64) float64 { return *n },
	}).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page templates: %w", err)
	}
	r.tmpl = tmpl
	return r, nil
}

// Render writes the full HTML page.
func (r *Renderer) Render(w io.Writer, p Page) error {
	p.Theme = theme.Normalize(p.Theme)
	if err := r.tmpl.ExecuteTemplate(w, "page", p); err != nil {
		return fmt.Errorf("failed to render tool page: %w", err)
	}
	return nil
}

// markdown renders result strings, which models often format with markdown.
// Raw HTML in the source is dropped by goldmark's default renderer.
func (r *Renderer) markdown(s string) template.HTML {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(s), &buf); err != nil {
		log.Printf("WARN: markdown conversion failed, showing plain text: %v", err)
		return template.HTML(template.HTMLEscapeString(s))
	}
	out := strings.TrimSpace(buf.String())
	// Single paragraphs render inline.
	if strings.Count(out, "<p>") == 1 && strings.HasPrefix(out, "<p>") && strings.HasSuffix(out, "</p>") {
		out = strings.TrimSuffix(strings.TrimPrefix(out, "<p>"), "</p>")
	}
	return template.HTML(out)
}

// cssValue passes through theme values that Normalize already validated.
func cssValue(s string) template.CSS {
	if !theme.ValidColor(s) && !theme.ValidFont(s) {
		return template.CSS("inherit")
	}
	return template.CSS(s)
}

func cssRadius(r string) template.CSS {
	if v, ok := radiusCSS[r]; ok {
		return template.CSS(v)
	}
	return template.CSS(radiusCSS[theme.DefaultBorderRadius])
}

func cssPercent(v float64) template.CSS {
	return template.CSS(FormatNumber(clamp(v, 0, 100)) + "%")
}

func cssOpacity(percent float64) template.CSS {
	return template.CSS(FormatNumber(0.25 + 0.75*clamp(percent, 0, 100)/100))
}

// bars scales a series against its largest absolute value.
func bars(series []Point) []bar {
	max := 0.0
	for _, p := range series {
		max = math.Max(max, math.Abs(p.Value))
	}
	out := make([]bar, len(series))
	for i, p := range series {
		out[i] = bar{Label: p.Label, Value: p.Value}
		if max > 0 {
			out[i].Percent = math.Abs(p.Value) / max * 100
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
