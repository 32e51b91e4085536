package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONWriter{}).Write(&buf, sampleReport()); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed["tool"] != "quorum" {
		t.Errorf("tool = %v, want quorum", parsed["tool"])
	}
	findings, ok := parsed["findings"].([]any)
	if !ok || len(findings) != 3 {
		t.Fatalf("findings = %v", parsed["findings"])
	}
	first := findings[0].(map[string]any)
	if first["line"] != float64(42) || first["agent"] != "Security Analyst" {
		t.Errorf("first finding = %v", first)
	}
	if _, ok := findings[2].(map[string]any)["line"]; ok {
		t.Error("finding without a line should omit the key")
	}

	summary := parsed["summary"].(map[string]any)
	if summary["totalIssues"] != float64(3) || summary["critical"] != float64(1) {
		t.Errorf("summary = %v", summary)
	}
}

func TestJSONWriter_NoHTMLEscape(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONWriter{}).Write(&buf, sampleReport()); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), `\u003c`) || strings.Contains(buf.String(), `\u0026`) {
		t.Error("JSON output should not HTML-escape")
	}
}

func TestJSONWriter_EmptyFindingsIsArray(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONWriter{}).Write(&buf, emptyReport()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"findings": []`) {
		t.Errorf("expected empty findings array:\n%s", buf.String())
	}
}
