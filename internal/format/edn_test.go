package format

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteEDN_KeywordsFromFieldNames(t *testing.T) {
	var buf bytes.Buffer
	v := map[string]any{
		"workspaceId": "ws-demo",
		"ok":          true,
		"error code":  "api_error",
	}
	if err := WriteEDN(&buf, v, false); err != nil {
		t.Fatalf("WriteEDN: %v", err)
	}
	got := strings.TrimSpace(buf.String())
	if got != `{:error-code "api_error" :ok true :workspaceId "ws-demo"}` {
		t.Fatalf("unexpected edn: %q", got)
	}
}

func TestWriteEDN_IntegralNumbers(t *testing.T) {
	var buf bytes.Buffer
	v := map[string]any{"total": 3.0, "ratio": 0.5}
	if err := WriteEDN(&buf, v, false); err != nil {
		t.Fatalf("WriteEDN: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "{:ratio 0.5 :total 3}" {
		t.Fatalf("unexpected edn: %q", got)
	}
}

func TestWriteEDN_PrettyNestsBlocks(t *testing.T) {
	var buf bytes.Buffer
	v := map[string]any{"blocks": []any{map[string]any{"slug": "Header"}, "RichText"}}
	if err := WriteEDN(&buf, v, true); err != nil {
		t.Fatalf("WriteEDN: %v", err)
	}
	got := buf.String()
	if !strings.Contains(got, "\n") || !strings.HasSuffix(got, "\n") {
		t.Fatalf("expected multi-line output, got %q", got)
	}
	if !strings.Contains(got, `:slug "Header"`) {
		t.Fatalf("expected nested block, got %q", got)
	}
}
