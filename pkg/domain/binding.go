package domain

import "fmt"

// SourceKind identifies where a bound value comes from.
type SourceKind string

const (
	SourceStrip SourceKind = "strip"
	SourceFile  SourceKind = "file"
	SourceText  SourceKind = "text"
)

// Source is the value bound to one input.
type Source struct {
	Kind    SourceKind `json:"kind"`
	StripID string     `json:"strip_id,omitempty"`
	Path    string     `json:"path,omitempty"`
	Text    string     `json:"text,omitempty"`
}

// StripSource binds an input to the strip with the given stable ID.
func StripSource(id string) Source { return Source{Kind: SourceStrip, StripID: id} }

// FileSource binds an input to a file path.
func FileSource(path string) Source { return Source{Kind: SourceFile, Path: path} }

// TextSource binds an input to a literal.
func TextSource(text string) Source { return Source{Kind: SourceText, Text: text} }

// IsSet reports whether the source carries a value. An explicit text literal
// always counts, even when empty.
func (s Source) IsSet() bool {
	switch s.Kind {
	case SourceStrip:
		return s.StripID != ""
	case SourceFile:
		return s.Path != ""
	case SourceText:
		return true
	}
	return false
}

func (s Source) String() string {
	switch s.Kind {
	case SourceStrip:
		return fmt.Sprintf("strip:%s", s.StripID)
	case SourceFile:
		return fmt.Sprintf("file:%s", s.Path)
	case SourceText:
		return fmt.Sprintf("text:%q", s.Text)
	}
	return "unbound"
}

// Bindings maps input names to their sources. A missing key means unbound.
type Bindings map[string]Source

// Clone returns a shallow copy.
func (b Bindings) Clone() Bindings {
	out := make(Bindings, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}
