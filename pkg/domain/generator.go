package domain

import (
	"fmt"
	"strings"
)

// MediaKind is the kind of content a property carries.
type MediaKind string

const (
	MediaText  MediaKind = "text"
	MediaImage MediaKind = "image"
	MediaSound MediaKind = "sound"
	MediaMovie MediaKind = "movie"
)

// MediaKinds lists every supported kind in canonical order.
var MediaKinds = []MediaKind{MediaText, MediaImage, MediaSound, MediaMovie}

// ParseMediaKind parses a kind name, ignoring case.
func ParseMediaKind(s string) (MediaKind, error) {
	for _, k := range MediaKinds {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown media kind %q", s)
}

// StripKind maps a media kind onto the strip kind that holds it.
func (k MediaKind) StripKind() StripKind {
	switch k {
	case MediaText:
		return StripText
	case MediaImage:
		return StripImage
	case MediaSound:
		return StripSound
	case MediaMovie:
		return StripMovie
	}
	return StripAdjustment
}

// TransferMode says how a value is handed to the external program.
type TransferMode string

const (
	// TransferInline substitutes the value itself into the argument.
	TransferInline TransferMode = "text"
	// TransferFile substitutes a path to a file holding the value.
	TransferFile TransferMode = "file"
	// TransferStream is recognized but not implemented.
	TransferStream TransferMode = "stream"
)

// TransferModes lists every recognized mode.
var TransferModes = []TransferMode{TransferInline, TransferFile, TransferStream}

// ParseTransferMode parses a mode name, ignoring case.
func ParseTransferMode(s string) (TransferMode, error) {
	for _, m := range TransferModes {
		if strings.EqualFold(s, string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown transfer mode %q", s)
}

// ArgumentItem is one element of an argument list. When ConditionProperty is
// non-empty the item is only emitted if that property is set.
type ArgumentItem struct {
	Text              string `json:"argument" yaml:"argument"`
	ConditionProperty string `json:"if_property_set,omitempty" yaml:"if-property-set,omitempty"`
}

// Command describes the external program and its argument template.
// At most one of Arguments and ArgumentList is present.
type Command struct {
	Program      string         `json:"program" yaml:"program"`
	Arguments    *string        `json:"arguments,omitempty" yaml:"arguments,omitempty"`
	ArgumentList []ArgumentItem `json:"argument_list,omitempty" yaml:"argument-list,omitempty"`
	// Timeout in seconds. Nil defers to the global default; zero is unbounded.
	Timeout *int `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// InputSpec declares one input property.
type InputSpec struct {
	Name     string       `json:"name"`
	Kind     MediaKind    `json:"type"`
	Transfer TransferMode `json:"pass_via"`
	Required bool         `json:"required"`
	Default  *string      `json:"default_value,omitempty"`
}

// OutputSpec declares one output property.
type OutputSpec struct {
	Name          string       `json:"name"`
	Kind          MediaKind    `json:"type"`
	Transfer      TransferMode `json:"pass_via"`
	FileExtension string       `json:"file_ext,omitempty"`
	Required      bool         `json:"required"`
}

// Extension returns the file extension used for this output's temp file.
func (o OutputSpec) Extension() string {
	if o.FileExtension == "" {
		return DefaultTempExtension
	}
	return o.FileExtension
}

// GeneratorDefinition is a validated generator. It is immutable once loaded.
type GeneratorDefinition struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Command     Command      `json:"command"`
	Inputs      []InputSpec  `json:"inputs,omitempty"`
	Outputs     []OutputSpec `json:"outputs,omitempty"`
}

// Input looks up an input by name.
func (d *GeneratorDefinition) Input(name string) (InputSpec, bool) {
	for _, in := range d.Inputs {
		if in.Name == name {
			return in, true
		}
	}
	return InputSpec{}, false
}

// Output looks up an output by name.
func (d *GeneratorDefinition) Output(name string) (OutputSpec, bool) {
	for _, out := range d.Outputs {
		if out.Name == name {
			return out, true
		}
	}
	return OutputSpec{}, false
}
