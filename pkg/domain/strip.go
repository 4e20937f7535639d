package domain

import "fmt"

// StripKind is the kind of a timeline strip.
type StripKind string

const (
	StripText       StripKind = "text"
	StripImage      StripKind = "image"
	StripSound      StripKind = "sound"
	StripMovie      StripKind = "movie"
	StripAdjustment StripKind = "adjustment"
)

// MediaKind returns the media kind a strip carries, or false for strips that
// carry no bindable content.
func (k StripKind) MediaKind() (MediaKind, bool) {
	switch k {
	case StripText:
		return MediaText, true
	case StripImage:
		return MediaImage, true
	case StripSound:
		return MediaSound, true
	case StripMovie:
		return MediaMovie, true
	}
	return "", false
}

// Display holds user-visible strip attributes that regeneration must preserve.
type Display struct {
	Mute            bool    `json:"mute,omitempty"`
	Lock            bool    `json:"lock,omitempty"`
	BlendType       string  `json:"blend_type,omitempty"`
	BlendAlpha      float64 `json:"blend_alpha,omitempty"`
	ColorSaturation float64 `json:"color_saturation,omitempty"`
	ColorMultiply   float64 `json:"color_multiply,omitempty"`
	Volume          float64 `json:"volume,omitempty"`
	Pan             float64 `json:"pan,omitempty"`
	Pitch           float64 `json:"pitch,omitempty"`
}

// Strip is a timeline strip as seen through the timeline port.
type Strip struct {
	// ID is the stable identifier tag. It may be empty for strips that were
	// never bound or generated.
	ID string `json:"id,omitempty"`
	// Key is the host-native handle (a strip name in most editors).
	Key           string    `json:"key"`
	Name          string    `json:"name"`
	Kind          StripKind `json:"kind"`
	Channel       int       `json:"channel"`
	FrameStart    int       `json:"frame_start"`
	FrameDuration int       `json:"frame_duration,omitempty"`
	Text          string    `json:"text,omitempty"`
	// FilePath is absolute when read through a timeline.
	FilePath string  `json:"file_path,omitempty"`
	Selected bool    `json:"selected,omitempty"`
	Active   bool    `json:"active,omitempty"`
	Display  Display `json:"display"`
}

// NewStrip describes a strip to be created.
type NewStrip struct {
	ID         string
	Name       string
	Kind       StripKind
	Channel    int
	FrameStart int
	// FrameDuration applies to generated strips (text, adjustment). Media
	// strips take their length from the file.
	FrameDuration int
	Text          string
	FilePath      string
}

// UniqueKey derives a host key from name, appending .001, .002 and so on
// while taken reports a collision.
func UniqueKey(name string, taken func(string) bool) string {
	if name == "" {
		name = "Strip"
	}
	key := name
	for i := 1; taken(key); i++ {
		key = fmt.Sprintf("%s.%03d", name, i)
	}
	return key
}
