package format

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func envelopeFixture() map[string]any {
	return map[string]any{
		"ok":          true,
		"workspaceId": "ws-demo",
		"data": map[string]any{
			"automation": map[string]any{"slug": "hello", "name": map[string]any{"en": "Hello", "fr": "Bonjour"}},
		},
	}
}

func TestWriteJSON_CompactKeepsHTMLAndNewline(t *testing.T) {
	var buf bytes.Buffer
	v := map[string]any{"content": "<p>Hi & welcome</p>"}
	if err := WriteJSON(&buf, v, false); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	got := buf.String()
	if got != "{\"content\":\"<p>Hi & welcome</p>\"}\n" {
		t.Fatalf("unexpected json %q", got)
	}

	buf.Reset()
	if err := WriteJSON(&buf, envelopeFixture(), true); err != nil {
		t.Fatalf("WriteJSON pretty: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"data\"") {
		t.Fatalf("expected indented json, got %q", buf.String())
	}
	var parsed map[string]any
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("expected valid json: %v", err)
	}
}

func TestWrite_FormatNames(t *testing.T) {
	for _, f := range []string{"", "json", " JSON ", "yaml", "yml", "edn"} {
		var buf bytes.Buffer
		if err := Write(&buf, envelopeFixture(), f, false); err != nil {
			t.Fatalf("format %q: %v", f, err)
		}
	}
	if err := Write(&bytes.Buffer{}, envelopeFixture(), "toml", false); err == nil {
		t.Fatal("expected an error for an unknown format")
	}
}

func TestWriteYAML_FollowsJSONTags(t *testing.T) {
	type page struct {
		Slug   string `json:"slug"`
		Public bool   `json:"public,omitempty"`
	}
	var buf bytes.Buffer
	if err := Write(&buf, map[string]any{"pages": []page{{Slug: "home", Public: true}, {Slug: "draft"}}}, "yaml", false); err != nil {
		t.Fatalf("Write yaml: %v", err)
	}
	want := "pages:\n  - public: true\n    slug: home\n  - slug: draft\n"
	if buf.String() != want {
		t.Fatalf("unexpected yaml:\n%s", buf.String())
	}
}
