package backoffice

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Kind
	}{
		{"object", `{"aaData":[]}`, KindJSON},
		{"array", `[1,2]`, KindJSON},
		{"leading whitespace json", "  \n{\"a\":1}", KindJSON},
		{"html document", "<!DOCTYPE html><html><body>Login</body></html>", KindHTML},
		{"html after whitespace", "\n   <html></html>", KindHTML},
		{"plain text", "Service Unavailable", KindUnparseable},
		{"empty", "", KindUnparseable},
		{"trailing garbage", `{"a":1} extra`, KindUnparseable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify([]byte(tt.body))
			if got.Kind != tt.want {
				t.Errorf("Classify(%q).Kind = %s, want %s", tt.body, got.Kind, tt.want)
			}
			if got.Text != tt.body {
				t.Errorf("Text = %q, want raw body", got.Text)
			}
		})
	}
}

func TestClassify_HTMLSetsMIME(t *testing.T) {
	got := Classify([]byte("<html><head></head><body>Please sign in</body></html>"))
	if !strings.HasPrefix(got.MIME, "text/html") {
		t.Errorf("MIME = %q, want text/html", got.MIME)
	}
}

func TestClassify_UnparseableSetsMIME(t *testing.T) {
	tests := []struct {
		name string
		body []byte
		want string
	}{
		{"plain text", []byte("Service temporarily unavailable"), "text/plain"},
		{"gzip", []byte{0x1f, 0x8b, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00}, "application/gzip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.body)
			if got.Kind != KindUnparseable {
				t.Fatalf("Kind = %v, want KindUnparseable", got.Kind)
			}
			if !strings.HasPrefix(got.MIME, tt.want) {
				t.Errorf("MIME = %q, want %s", got.MIME, tt.want)
			}
		})
	}
}

func TestClassify_JSONHasNoMIME(t *testing.T) {
	if got := Classify([]byte(`{"ok":true}`)); got.MIME != "" {
		t.Errorf("MIME = %q, want empty for JSON", got.MIME)
	}
}

func TestClassify_KeepsNumbersExact(t *testing.T) {
	got := Classify([]byte(`{"id": 12345678901234567890}`))
	obj := got.Value.(map[string]interface{})
	if n, ok := obj["id"].(json.Number); !ok || n.String() != "12345678901234567890" {
		t.Errorf("id = %#v, want exact json.Number", obj["id"])
	}
}

func TestBody_Data(t *testing.T) {
	if d := Classify([]byte(`{"ok":true}`)).Data(); d.(map[string]interface{})["ok"] != true {
		t.Errorf("Data() = %v", d)
	}
	if d := Classify([]byte(`not json`)).Data(); d != "not json" {
		t.Errorf("Data() = %v, want raw text", d)
	}
}
