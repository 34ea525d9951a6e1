package utils

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/tidwall/gjson"
)

var ErrNotObject = errors.New("model output is not a JSON object")

// CleanOutput strips markdown code fences and surrounding prose some models wrap
// around JSON even when asked for a bare object.
func CleanOutput(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if strings.HasPrefix(cleaned, "{") {
		return cleaned
	}
	// Leading prose: keep the outermost object if there is one.
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		return cleaned[start : end+1]
	}
	return cleaned
}

// ObjectJSON returns the cleaned output if it is a single valid JSON object.
func ObjectJSON(raw string) (string, error) {
	cleaned := CleanOutput(raw)
	if !gjson.Valid(cleaned) {
		return "", fmt.Errorf("invalid JSON in model output")
	}
	if !gjson.Parse(cleaned).IsObject() {
		return "", ErrNotObject
	}
	return cleaned, nil
}

// FindObject returns the object in the model output that carries key. When the
// top level lacks it, the first wrapper key holding an object is used, e.g.
// {"toolConfig": {...}}; failing that, the top level is returned as is and the
// caller validates.
func FindObject(raw, key string, wrapperKeys ...string) (gjson.Result, error) {
	cleaned, err := ObjectJSON(raw)
	if err != nil {
		return gjson.Result{}, err
	}
	root := gjson.Parse(cleaned)
	if key == "" || root.Get(key).Exists() {
		return root, nil
	}
	for _, w := range wrapperKeys {
		if inner := root.Get(w); inner.IsObject() {
			log.Printf("Parsed model output assuming wrapped object under key '%s'.", w)
			return inner, nil
		}
	}
	return root, nil
}
