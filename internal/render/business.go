package render

import (
	"github.com/tidwall/gjson"
)

// businessSignature are the keys whose joint presence marks a business idea
// payload. Each may sit at the top level or one object below it.
var businessSignature = []string{"demographics", "psychographics", "mainCompetitors", "primaryStreams"}

var (
	projectionKeys = []string{"revenueProjections", "projectedRevenue", "projections", "yearlyRevenue", "revenueByYear"}
	nextStepKeys   = []string{"nextSteps", "recommendedNextSteps", "actionItems"}
	nameKeys       = []string{"name", "competitor", "company", "title", "stream", "step", "action"}
	amountKeys     = []string{"amount", "revenue", "value", "projection"}
)

// BusinessIdea is the dedicated layout for business idea payloads.
type BusinessIdea struct {
	Demographics   []Field      `json:"demographics"`
	Psychographics []Field      `json:"psychographics"`
	Competitors    []Competitor `json:"competitors"`
	RevenueStreams []string     `json:"revenueStreams"`
	Revenue        []Point      `json:"revenue,omitempty"`
	NextSteps      []string     `json:"nextSteps,omitempty"`
}

type Competitor struct {
	Name       string   `json:"name"`
	Strengths  []string `json:"strengths,omitempty"`
	Weaknesses []string `json:"weaknesses,omitempty"`
}

// located is a value found by findKey together with the object holding it.
type located struct {
	value  gjson.Result
	parent gjson.Result
}

// findKey looks for key at the top level of root, then inside each top-level
// object in document order.
func findKey(root gjson.Result, key string) (located, bool) {
	if v := root.Get(escapeKey(key)); v.Exists() {
		return located{value: v, parent: root}, true
	}
	var found located
	ok := false
	root.ForEach(func(_, child gjson.Result) bool {
		if !child.IsObject() {
			return true
		}
		if v := child.Get(escapeKey(key)); v.Exists() {
			found = located{value: v, parent: child}
			ok = true
			return false
		}
		return true
	})
	return found, ok
}

// detectBusinessIdea returns the business layout, or false when the signature
// is incomplete.
func detectBusinessIdea(root gjson.Result) (BusinessIdea, bool) {
	found := make(map[string]located, len(businessSignature))
	for _, key := range businessSignature {
		loc, ok := findKey(root, key)
		if !ok {
			return BusinessIdea{}, false
		}
		found[key] = loc
	}

	idea := BusinessIdea{
		Demographics:   fieldsOf(found["demographics"].value),
		Psychographics: fieldsOf(found["psychographics"].value),
		Competitors:    competitorsOf(found["mainCompetitors"].value),
		RevenueStreams: namesOf(found["primaryStreams"].value),
	}

	// Projections usually live next to the revenue streams.
	for _, scope := range []gjson.Result{found["primaryStreams"].parent, root} {
		if idea.Revenue != nil {
			break
		}
		for _, key := range projectionKeys {
			if v := scope.Get(escapeKey(key)); v.Exists() {
				idea.Revenue = seriesOf(v)
				break
			}
		}
	}

	for _, key := range nextStepKeys {
		if loc, ok := findKey(root, key); ok {
			idea.NextSteps = namesOf(loc.value)
			break
		}
	}
	return idea, true
}

func fieldsOf(v gjson.Result) []Field {
	out := []Field{}
	switch {
	case v.IsObject():
		v.ForEach(func(k, item gjson.Result) bool {
			out = append(out, Field{Key: k.String(), Label: Humanize(k.String()), Value: Text(item)})
			return true
		})
	case v.IsArray():
		for _, item := range v.Array() {
			out = append(out, Field{Value: Text(item)})
		}
	default:
		if s := Text(v); s != "" {
			out = append(out, Field{Value: s})
		}
	}
	return out
}

func competitorsOf(v gjson.Result) []Competitor {
	out := []Competitor{}
	switch {
	case v.IsArray():
		for _, item := range v.Array() {
			c := Competitor{Name: nameOf(item)}
			if item.IsObject() {
				c.Strengths = namesOf(item.Get("strengths"))
				c.Weaknesses = namesOf(item.Get("weaknesses"))
			}
			out = append(out, c)
		}
	case v.IsObject():
		// {"Acme": {"strengths": [...], "weaknesses": [...]}}
		v.ForEach(func(k, item gjson.Result) bool {
			out = append(out, Competitor{
				Name:       k.String(),
				Strengths:  namesOf(item.Get("strengths")),
				Weaknesses: namesOf(item.Get("weaknesses")),
			})
			return true
		})
	default:
		if s := Text(v); s != "" {
			out = append(out, Competitor{Name: s})
		}
	}
	return out
}

// namesOf flattens a list (or a single value) into display strings.
func namesOf(v gjson.Result) []string {
	if !v.Exists() {
		return nil
	}
	if !v.IsArray() {
		if s := nameOf(v); s != "" {
			return []string{s}
		}
		return nil
	}
	out := []string{}
	for _, item := range v.Array() {
		if s := nameOf(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func nameOf(v gjson.Result) string {
	if v.IsObject() {
		for _, key := range nameKeys {
			if n := v.Get(key); n.Type == gjson.String {
				return n.Str
			}
		}
	}
	return Text(v)
}

// seriesOf reads year to amount data either as {"2025": 1000} or as
// [{"year": 2025, "amount": 1000}].
func seriesOf(v gjson.Result) []Point {
	var out []Point
	switch {
	case v.IsObject():
		v.ForEach(func(k, amount gjson.Result) bool {
			if amount.Type == gjson.Number {
				out = append(out, Point{Label: k.String(), Value: amount.Float()})
			}
			return true
		})
	case v.IsArray():
		for _, item := range v.Array() {
			year := item.Get("year")
			if !year.Exists() {
				continue
			}
			for _, key := range amountKeys {
				if amount := item.Get(key); amount.Type == gjson.Number {
					out = append(out, Point{Label: year.String(), Value: amount.Float()})
					break
				}
			}
		}
	}
	return out
}
