package story

import (
	"encoding/json"
	"testing"
)

func TestDecodeChapterDirect(t *testing.T) {
	ch := DecodeChapter(json.RawMessage(`{"chapter":3,"text":"Mile eighteen was brutal."}`))
	if ch.Chapter != 3 || ch.Text != "Mile eighteen was brutal." {
		t.Errorf("unexpected chapter: %+v", ch)
	}
}

func TestDecodeChapterLegacyDoubleEncoded(t *testing.T) {
	inner, _ := json.Marshal(Chapter{Chapter: 2, Text: "She ran on."})
	outer, _ := json.Marshal(string(inner))

	ch := DecodeChapter(outer)
	if ch.Chapter != 2 || ch.Text != "She ran on." {
		t.Errorf("unexpected chapter: %+v", ch)
	}
}

func TestDecodeChapterMalformed(t *testing.T) {
	cases := []json.RawMessage{
		nil,
		json.RawMessage(``),
		json.RawMessage(`not json at all`),
		json.RawMessage(`"still not a chapter"`),
	}
	for _, raw := range cases {
		ch := DecodeChapter(raw)
		if ch.Chapter != 0 || ch.Text != "" {
			t.Errorf("expected zero chapter for %q, got %+v", raw, ch)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := Chapter{Chapter: 5, Text: "The finish line appeared."}
	decoded := DecodeChapter(EncodeChapter(original))
	if decoded != original {
		t.Errorf("round trip mismatch: %+v", decoded)
	}
}
