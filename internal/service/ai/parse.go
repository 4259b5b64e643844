package ai

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/sameearif/JourneyLens/internal/model/vision"
)

// ErrNoJSON means the model output contained no decodable JSON object, even
// after stripping surrounding prose.
var ErrNoJSON = errors.New("no JSON object in model output")

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// decodeModelJSON decodes a model completion into v. It first tries the raw
// text as-is, then falls back to the outermost brace-delimited span, since
// models occasionally wrap the JSON in prose or code fences.
func decodeModelJSON(raw string, v interface{}) error {
	if json.Unmarshal([]byte(raw), v) == nil {
		return nil
	}

	if match := jsonObjectPattern.FindString(raw); match != "" {
		if json.Unmarshal([]byte(match), v) == nil {
			return nil
		}
	}

	return ErrNoJSON
}

// decodeTodoList accepts the loose shapes models emit for a todo list: a
// JSON array, a string holding a JSON array, or a plain comma- or
// newline-separated string.
func decodeTodoList(raw json.RawMessage) []vision.TodoItem {
	if len(raw) == 0 {
		return []vision.TodoItem{}
	}

	var items []json.RawMessage
	if json.Unmarshal(raw, &items) == nil {
		return normalizeTodos(items)
	}

	var text string
	if json.Unmarshal(raw, &text) != nil {
		return []vision.TodoItem{}
	}
	if json.Unmarshal([]byte(text), &items) == nil {
		return normalizeTodos(items)
	}

	todos := []vision.TodoItem{}
	for _, part := range strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == '\n' }) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			todos = append(todos, vision.TodoItem{Text: trimmed})
		}
	}
	return todos
}

// normalizeTodos converts a loosely-typed todo list into TodoItems. Bare
// strings become unchecked items; objects keep their text and checked flag.
// Anything else is dropped.
func normalizeTodos(items []json.RawMessage) []vision.TodoItem {
	todos := make([]vision.TodoItem, 0, len(items))
	for _, item := range items {
		var text string
		if json.Unmarshal(item, &text) == nil {
			todos = append(todos, vision.TodoItem{Text: text})
			continue
		}

		var obj struct {
			Text    string `json:"text"`
			Checked bool   `json:"checked"`
		}
		if json.Unmarshal(item, &obj) == nil && obj.Text != "" {
			todos = append(todos, vision.TodoItem{Text: obj.Text, Checked: obj.Checked})
		}
	}
	return todos
}
