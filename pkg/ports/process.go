package ports

import "os"

// ProcessSpec describes a program to start. Args excludes the program itself.
type ProcessSpec struct {
	Program string
	Args    []string
	Dir     string
	Stdout  *os.File
	Stderr  *os.File
}

// ExitStatus is the outcome of a finished process.
type ExitStatus struct {
	Code int
}

// Process is a running external program.
type Process interface {
	PID() int
	// Poll reports without blocking whether the process has exited.
	Poll() (status ExitStatus, exited bool, err error)
	// Kill terminates the process and everything it started. Killing an exited
	// process is not an error.
	Kill() error
}

// Spawner starts external programs without a shell.
type Spawner interface {
	Spawn(spec ProcessSpec) (Process, error)
}
