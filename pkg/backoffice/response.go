package backoffice

import (
	"bytes"
	"encoding/json"

	"github.com/gabriel-vasile/mimetype"
)

// Kind tags how a response body was classified.
type Kind int

const (
	KindJSON        Kind = iota // Body decoded as JSON
	KindHTML                    // Body starts with '<'
	KindUnparseable             // Neither HTML nor valid JSON
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindJSON:
		return "json"
	case KindHTML:
		return "html"
	case KindUnparseable:
		return "unparseable"
	default:
		return "unknown"
	}
}

// Body is a classified response body. Value is set for KindJSON, Text for
// every kind, MIME for non-JSON kinds.
type Body struct {
	Kind  Kind
	Value interface{}
	Text  string
	MIME  string
}

// Classify decides whether a body is JSON, HTML or neither. It makes no policy
// decision; callers decide what an HTML body means for them.
func Classify(raw []byte) Body {
	b := Body{Text: string(raw)}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '<' {
		b.Kind = KindHTML
		b.MIME = mimetype.Detect(trimmed).String()
		return b
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v interface{}
	if len(trimmed) > 0 && dec.Decode(&v) == nil && !dec.More() {
		b.Kind = KindJSON
		b.Value = v
		return b
	}

	b.Kind = KindUnparseable
	b.MIME = mimetype.Detect(raw).String()
	return b
}

// Data returns the decoded value for JSON bodies and the raw text otherwise.
func (b Body) Data() interface{} {
	if b.Kind == KindJSON {
		return b.Value
	}
	return b.Text
}
