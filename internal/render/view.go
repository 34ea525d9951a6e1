// Package render turns tool configurations and schema-less analysis results
// into view models and themed HTML pages.
package render

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/tidwall/gjson"
)

// Kind tags a result block with the visualization chosen for its value.
type Kind string

const (
	KindChecklist Kind = "checklist" // array of strings
	KindCards     Kind = "cards"     // array of objects or mixed values
	KindRadar     Kind = "radar"     // numeric map, 3-8 keys
	KindPie       Kind = "pie"       // numeric map, 2-6 keys
	KindHeatmap   Kind = "heatmap"   // numeric map, more than 8 keys
	KindSection   Kind = "section"   // nested object
	KindScalar    Kind = "scalar"    // string, number, bool, null
)

// headlineKeys are checked in order for the headline metric.
var headlineKeys = []string{"score", "rating", "overallScore"}

// progressKeys mark a sub-field of a nested object drawn as a progress bar.
var progressKeys = []string{"score", "rating"}

// View is the render-ready form of an AnalysisResult.
type View struct {
	Headline *Metric       `json:"headline,omitempty"`
	Business *BusinessIdea `json:"businessIdea,omitempty"`
	Blocks   []Block       `json:"blocks"`
}

type Metric struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Block is one dispatched top-level (or nested) key. Which payload fields are
// set depends on Kind.
type Block struct {
	Kind  Kind   `json:"kind"`
	Key   string `json:"key"`
	Title string `json:"title"`

	Items    []string `json:"items,omitempty"`
	Cards    []Card   `json:"cards,omitempty"`
	Series   []Point  `json:"series,omitempty"`
	Children []Block  `json:"children,omitempty"`
	Progress *Metric  `json:"progress,omitempty"`

	Text   string   `json:"text,omitempty"`
	Number *float64 `json:"number,omitempty"`
	Gauge  bool     `json:"gauge,omitempty"`
}

// Card is one element of an object array, flattened to key/value rows.
type Card struct {
	Fields []Field `json:"fields"`
}

type Field struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Point is one labelled value of a chart series.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// rule is one entry of the dispatch priority list. The first rule whose
// match returns true decides the block kind.
type rule struct {
	kind  Kind
	match func(v gjson.Result) bool
}

// rules is the ordered dispatch table. The numeric-map ranges overlap for
// 3-6 keys; radar is listed first and wins.
var rules = []rule{
	{KindChecklist, isStringArray},
	{KindCards, gjson.Result.IsArray},
	{KindRadar, numericMapWithin(3, 8)},
	{KindPie, numericMapWithin(2, 6)},
	{KindHeatmap, numericMapWithin(9, int(^uint(0)>>1))},
	{KindSection, gjson.Result.IsObject},
}

// Classify returns the block kind for a single JSON value.
func Classify(v gjson.Result) Kind {
	for _, r := range rules {
		if r.match(v) {
			return r.kind
		}
	}
	return KindScalar
}

// Analyze builds the view for a raw analysis result. Anything that is not a
// JSON object becomes a single scalar block so callers always get something
// to show.
func Analyze(raw []byte) View {
	if !gjson.ValidBytes(raw) {
		return View{Blocks: []Block{{Kind: KindScalar, Key: "result", Title: "Result", Text: string(raw)}}}
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return View{Blocks: []Block{block("result", root)}}
	}

	// A business idea replaces the generic layout entirely.
	if idea, ok := detectBusinessIdea(root); ok {
		return View{Business: &idea, Blocks: []Block{}}
	}

	var view View
	skip := map[string]bool{}

	for _, key := range headlineKeys {
		v := root.Get(escapeKey(key))
		if v.Type != gjson.Number {
			continue
		}
		skip[key] = true
		if view.Headline == nil {
			view.Headline = &Metric{Key: key, Label: Humanize(key), Value: v.Float()}
		}
	}

	view.Blocks = blocks(root, skip)
	return view
}

func blocks(obj gjson.Result, skip map[string]bool) []Block {
	out := []Block{}
	obj.ForEach(func(k, v gjson.Result) bool {
		if !skip[k.String()] {
			out = append(out, block(k.String(), v))
		}
		return true
	})
	return out
}

func block(key string, v gjson.Result) Block {
	b := Block{Kind: Classify(v), Key: key, Title: Humanize(key)}
	switch b.Kind {
	case KindChecklist:
		for _, item := range v.Array() {
			b.Items = append(b.Items, item.String())
		}
		if b.Items == nil {
			b.Items = []string{}
		}
	case KindCards:
		for _, item := range v.Array() {
			b.Cards = append(b.Cards, card(item))
		}
	case KindRadar, KindPie, KindHeatmap:
		v.ForEach(func(k, n gjson.Result) bool {
			b.Series = append(b.Series, Point{Label: Humanize(k.String()), Value: n.Float()})
			return true
		})
	case KindSection:
		skip := map[string]bool{}
		for _, pk := range progressKeys {
			sub := v.Get(escapeKey(pk))
			if sub.Type != gjson.Number {
				continue
			}
			skip[pk] = true
			if b.Progress == nil {
				b.Progress = &Metric{Key: pk, Label: Humanize(pk), Value: sub.Float()}
			}
		}
		b.Children = blocks(v, skip)
	default:
		if v.Type == gjson.Number {
			n := v.Float()
			b.Number = &n
			b.Gauge = n >= 0 && n <= 100
			b.Text = v.Raw
		} else {
			b.Text = v.String()
		}
	}
	return b
}

func card(item gjson.Result) Card {
	if !item.IsObject() {
		return Card{Fields: []Field{{Value: Text(item)}}}
	}
	var c Card
	item.ForEach(func(k, v gjson.Result) bool {
		c.Fields = append(c.Fields, Field{Key: k.String(), Label: Humanize(k.String()), Value: Text(v)})
		return true
	})
	return c
}

// Text flattens a value for display in a single row: string arrays are
// joined, other composites are shown as compact JSON.
func Text(v gjson.Result) string {
	switch {
	case v.Type == gjson.String:
		return v.Str
	case isStringArray(v):
		parts := make([]string, 0, len(v.Array()))
		for _, item := range v.Array() {
			parts = append(parts, item.Str)
		}
		return strings.Join(parts, ", ")
	case v.Type == gjson.Null:
		return ""
	default:
		return v.Raw
	}
}

// isStringArray reports whether v is an array whose elements are all strings.
// The empty array counts.
func isStringArray(v gjson.Result) bool {
	if !v.IsArray() {
		return false
	}
	for _, item := range v.Array() {
		if item.Type != gjson.String {
			return false
		}
	}
	return true
}

func numericMapWithin(min, max int) func(gjson.Result) bool {
	return func(v gjson.Result) bool {
		if !v.IsObject() {
			return false
		}
		n := 0
		numeric := true
		v.ForEach(func(_, value gjson.Result) bool {
			n++
			if value.Type != gjson.Number {
				numeric = false
				return false
			}
			return true
		})
		return numeric && n >= min && n <= max
	}
}

// escapeKey makes a literal object key safe to use as a gjson path.
func escapeKey(key string) string {
	var sb strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', '!', '=', '<', '>', '%':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Humanize turns camelCase, snake_case and kebab-case keys into a title.
func Humanize(key string) string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	runes := []rune(key)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			flush()
			continue
		case unicode.IsUpper(r) && i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1]))):
			flush()
		}
		cur = append(cur, r)
	}
	flush()

	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// FormatNumber prints integers without a fraction and other values with at
// most two decimals.
func FormatNumber(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(math.Round(n*100)/100, 'f', -1, 64)
}
