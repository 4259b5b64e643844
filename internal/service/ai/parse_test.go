package ai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeModelJSONDirect(t *testing.T) {
	var summary VisionSummary
	err := decodeModelJSON(`{"title":"Marathon","description":"Run a marathon","characterDescription":"A runner at dawn"}`, &summary)
	require.NoError(t, err)
	assert.Equal(t, "Marathon", summary.Title)
	assert.Equal(t, "A runner at dawn", summary.CharacterDescription)
}

func TestDecodeModelJSONStripsProse(t *testing.T) {
	raw := "Sure! Here is the JSON you asked for:\n```json\n{\"title\":\"Marathon\",\"description\":\"Run\",\"characterDescription\":\"\"}\n```\nLet me know if you need anything else."

	var summary VisionSummary
	err := decodeModelJSON(raw, &summary)
	require.NoError(t, err)
	assert.Equal(t, "Marathon", summary.Title)
}

func TestDecodeModelJSONNoObject(t *testing.T) {
	var summary VisionSummary
	err := decodeModelJSON("I could not produce a summary this time.", &summary)
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestNormalizeTodosMixedShapes(t *testing.T) {
	items := []json.RawMessage{
		json.RawMessage(`"run 5k"`),
		json.RawMessage(`{"text":"sign up for a race","checked":true}`),
		json.RawMessage(`{"checked":false}`),
		json.RawMessage(`42`),
	}

	todos := normalizeTodos(items)
	require.Len(t, todos, 2)
	assert.Equal(t, "run 5k", todos[0].Text)
	assert.False(t, todos[0].Checked)
	assert.Equal(t, "sign up for a race", todos[1].Text)
	assert.True(t, todos[1].Checked)
}

func TestDecodeTodoListShapes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{"json array", `["run 5k","stretch daily"]`, []string{"run 5k", "stretch daily"}},
		{"stringified array", `"[\"run 5k\"]"`, []string{"run 5k"}},
		{"comma separated", `"run 5k, stretch daily"`, []string{"run 5k", "stretch daily"}},
		{"newline separated", `"run 5k\nstretch daily"`, []string{"run 5k", "stretch daily"}},
		{"empty", ``, nil},
		{"unusable", `42`, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			todos := decodeTodoList(json.RawMessage(tc.raw))
			require.Len(t, todos, len(tc.want))
			for i, text := range tc.want {
				assert.Equal(t, text, todos[i].Text)
				assert.False(t, todos[i].Checked)
			}
		})
	}
}

func TestFallbackImagePromptTruncates(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'a'
	}

	prompt := FallbackImagePrompt(string(long), "a tired hiker")
	assert.Contains(t, prompt, "Illustrate this chapter:")
	assert.Contains(t, prompt, "Keep the character consistent: a tired hiker")
	assert.Less(t, len(prompt), 500)
}
