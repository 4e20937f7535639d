/*
Package mediabridge runs external generative command-line tools on behalf of a
video editor's timeline.

A generator is a program plus declared input and output properties, described
in a small YAML document. Attaching a generator creates a controller strip
whose inputs are bound to other strips, files or literal text. Running it
resolves those bindings into an argument vector, launches the program without
blocking the host, and writes the produced media or text back to the timeline.

# Concept

The host owns the loop. The engine never blocks it: every run is a state
machine advanced by the host's scheduler, and every collaborator (timeline,
controller store, workspace, spawner) is a port the host implements or picks
from pkg/adapters.

# Usage

	project := memory.NewProject(memory.WithOutputDir("./media"))
	generators := registry.New()
	if _, err := generators.LoadDir("./generators"); err != nil {
		log.Print(err)
	}

	l := loop.New()
	go l.Run(ctx)

	eng := mediabridge.New(project, generators, l)
	att, err := eng.Attach(ctx, "Upscale", bridge.AttachOptions{FrameStart: 1})
	if err != nil {
		log.Fatal(err)
	}

	status, err := mediabridge.NewRunner(eng, l).Run(ctx, att.Strip.ID, nil)
	if err != nil {
		log.Fatalf("%s: %v", status.Phase, err)
	}
*/
package mediabridge
