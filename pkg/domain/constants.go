package domain

import "time"

const (
	// DefaultTickInterval is how often an active run is advanced.
	DefaultTickInterval = 100 * time.Millisecond

	// DefaultLogHistory is the number of recent output lines kept per run.
	DefaultLogHistory = 3

	// DefaultTempExtension is used for output files that declare no extension.
	DefaultTempExtension = ".tmp"

	// DefaultStripDuration is the length in frames of created text and
	// adjustment strips.
	DefaultStripDuration = 100

	// TextTempExtension is used when text is handed to a program as a file.
	TextTempExtension = ".txt"
)
