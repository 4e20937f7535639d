package domain

import "errors"

// ErrConfig is returned when a generator document fails to parse or validate.
var ErrConfig = errors.New("invalid generator definition")

// ErrBinding is returned when an argument vector cannot be resolved from bindings.
var ErrBinding = errors.New("binding error")

// ErrProcess is returned when the external program fails to spawn or exits non-zero.
var ErrProcess = errors.New("process error")

// ErrTimeout is returned, wrapped together with ErrProcess, when a run exceeds its timeout.
var ErrTimeout = errors.New("timed out")

// ErrMaterialize is returned when an output cannot be written back to the timeline.
var ErrMaterialize = errors.New("materialize error")

// ErrNotImplemented is returned for recognized but unsupported modes (stream transfer).
var ErrNotImplemented = errors.New("not implemented")

// ErrCancelled is recorded when a run is cancelled by the user or an interrupt.
var ErrCancelled = errors.New("run cancelled")

// ErrRunActive is returned when starting a run on a controller that already has one.
var ErrRunActive = errors.New("a run is already active for this controller")

// ErrNotRunning is returned when cancelling a controller with no active run.
var ErrNotRunning = errors.New("no active run for this controller")

// ErrStripNotFound is returned when a strip identifier no longer resolves.
var ErrStripNotFound = errors.New("strip not found")

// ErrControllerNotFound is returned when no controller state exists for an ID.
var ErrControllerNotFound = errors.New("controller not found")

// ErrNoProject is returned when an output location is needed but the project is unsaved.
var ErrNoProject = errors.New("project location not established")

// ErrGeneratorNotFound is returned when a generator name is not registered.
var ErrGeneratorNotFound = errors.New("generator not found")

// ErrDuplicateGenerator is returned when registering a generator twice.
var ErrDuplicateGenerator = errors.New("generator already registered")
