package ports

// Workspace provides the directories the engine writes to.
type Workspace interface {
	// OutputDir returns the directory for stable artifacts, creating it if needed.
	// Returns domain.ErrNoProject when the project has no saved location.
	OutputDir() (string, error)
}
