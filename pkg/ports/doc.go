/*
Package ports defines the driven ports (interfaces) of the mediabridge engine.

These interfaces decouple the generator engine from the host editor and the
operating system, so the same supervisor can run inside an editor, behind the
HTTP API or from the CLI.

# Key Interfaces

  - Timeline: Reads and mutates strips through stable identifiers.
  - ControllerStore: Persists controller state (bindings and output links).
  - Workspace: Provides scratch and output directories.
  - Scheduler: Calls back periodically on the host's single loop.
  - Spawner: Starts external programs and polls them without blocking.
*/
package ports
