// Package classifier maps a free-text prompt to one of the fixed tool type tags.
package classifier

import (
	"strings"

	"toolsmith_server/internal/types"
)

type category struct {
	toolType types.ToolType
	keywords []string
}

// Order matters: meta wording overlaps the other categories, so it is checked first.
var categories = []category{
	{types.ToolTypeMeta, []string{"meta", "title tag", "description tag", "serp snippet", "og tag", "open graph"}},
	{types.ToolTypeBlog, []string{"blog", "article", "post", "headline", "content idea", "outline"}},
	{types.ToolTypeKeyword, []string{"keyword", "search volume", "long-tail", "long tail", "search term"}},
	{types.ToolTypeLocal, []string{"local", "google business", "gmb", "near me", "map pack", "citation"}},
	{types.ToolTypeEcommerce, []string{"ecommerce", "e-commerce", "product", "shop", "store", "cart", "checkout"}},
}

// Classify returns the first category whose keywords appear in prompt,
// case-insensitively, or ToolTypeGeneral when none do.
func Classify(prompt string) types.ToolType {
	p := strings.ToLower(prompt)
	for _, c := range categories {
		for _, kw := range c.keywords {
			if strings.Contains(p, kw) {
				return c.toolType
			}
		}
	}
	return types.ToolTypeGeneral
}
