// Package resolver turns a generator definition and its input bindings into
// the argument vector of an external program.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/aretw0/mediabridge/internal/logging"
	"github.com/aretw0/mediabridge/pkg/domain"
	"github.com/aretw0/mediabridge/pkg/ports"
	"github.com/google/shlex"
	"github.com/google/uuid"
)

var placeholder = regexp.MustCompile(`\{([^{}]*)\}`)

// Resolution is the outcome of resolving one run.
type Resolution struct {
	// Args is the program followed by its arguments.
	Args []string
	// OutputPaths maps output names to the temp files the program must write.
	OutputPaths map[string]string
	// TempFiles lists every file created or allocated for this run.
	TempFiles []string
}

// Resolver builds argument vectors. It holds no per-run state.
type Resolver struct {
	strips ports.StripReader
	logger *slog.Logger
}

// Option configures the resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// New creates a resolver reading strip-bound values through strips.
func New(strips ports.StripReader, opts ...Option) *Resolver {
	r := &Resolver{
		strips: strips,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve builds the argument vector for def. Output and text-as-file temp
// files are placed in scratchDir. On error every file created so far is
// removed and nothing is returned.
func (r *Resolver) Resolve(ctx context.Context, def *domain.GeneratorDefinition, bindings domain.Bindings, scratchDir string) (res *Resolution, err error) {
	if err := checkStreams(def); err != nil {
		return nil, err
	}

	items, err := argumentItems(def.Command)
	if err != nil {
		return nil, err
	}

	run := &resolution{
		Resolver:   r,
		ctx:        ctx,
		def:        def,
		bindings:   bindings,
		scratchDir: scratchDir,
		outputs:    make(map[string]string),
		inputs:     make(map[string]string),
	}
	defer func() {
		if err != nil {
			run.cleanup()
		}
	}()

	args := []string{def.Command.Program}
	for _, item := range items {
		if item.ConditionProperty != "" && !run.isSet(item.ConditionProperty) {
			r.logger.Debug("dropping conditional argument", "argument", item.Text, "property", item.ConditionProperty)
			continue
		}
		arg, err := run.substitute(item.Text)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	return &Resolution{
		Args:        args,
		OutputPaths: run.outputs,
		TempFiles:   run.temps,
	}, nil
}

// resolution carries the state of a single Resolve call.
type resolution struct {
	*Resolver
	ctx        context.Context
	def        *domain.GeneratorDefinition
	bindings   domain.Bindings
	scratchDir string

	outputs map[string]string
	inputs  map[string]string
	temps   []string
}

// isSet reports whether an argument conditioned on name is emitted. Outputs
// are always allocated, so they always count as set.
func (run *resolution) isSet(name string) bool {
	if _, ok := run.def.Output(name); ok {
		return true
	}
	in, ok := run.def.Input(name)
	if !ok {
		return false
	}
	if src, bound := run.bindings[in.Name]; bound && src.IsSet() {
		return true
	}
	return in.Default != nil
}

func (run *resolution) substitute(text string) (string, error) {
	var firstErr error
	out := placeholder.ReplaceAllStringFunc(text, func(m string) string {
		if firstErr != nil {
			return m
		}
		name := m[1 : len(m)-1]
		v, err := run.value(name)
		if err != nil {
			firstErr = err
			return m
		}
		return v
	})
	return out, firstErr
}

func (run *resolution) value(name string) (string, error) {
	if out, ok := run.def.Output(name); ok {
		return run.outputPath(out)
	}
	if in, ok := run.def.Input(name); ok {
		if v, done := run.inputs[name]; done {
			return v, nil
		}
		v, err := run.inputValue(in)
		if err != nil {
			return "", err
		}
		run.inputs[name] = v
		return v, nil
	}
	return "", fmt.Errorf("%w: unknown placeholder {%s}", domain.ErrBinding, name)
}

func (run *resolution) outputPath(out domain.OutputSpec) (string, error) {
	if p, ok := run.outputs[out.Name]; ok {
		return p, nil
	}
	p := filepath.Join(run.scratchDir, uuid.NewString()+out.Extension())
	run.outputs[out.Name] = p
	run.temps = append(run.temps, p)
	return p, nil
}

func (run *resolution) cleanup() {
	for _, p := range run.temps {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			run.logger.Warn("failed to remove temp file", "path", p, "error", err)
		}
	}
	run.temps = nil
}

// checkStreams rejects stream transfer anywhere in the definition.
func checkStreams(def *domain.GeneratorDefinition) error {
	for _, in := range def.Inputs {
		if in.Transfer == domain.TransferStream {
			return fmt.Errorf("%w: stream transfer for input %q", domain.ErrNotImplemented, in.Name)
		}
	}
	for _, out := range def.Outputs {
		if out.Transfer == domain.TransferStream {
			return fmt.Errorf("%w: stream transfer for output %q", domain.ErrNotImplemented, out.Name)
		}
	}
	return nil
}

// argumentItems expands the argument template. A shell-style string is split
// with POSIX quoting rules and yields unconditional items.
func argumentItems(cmd domain.Command) ([]domain.ArgumentItem, error) {
	if cmd.Arguments == nil {
		return cmd.ArgumentList, nil
	}
	tokens, err := shlex.Split(*cmd.Arguments)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot split arguments: %v", domain.ErrBinding, err)
	}
	items := make([]domain.ArgumentItem, 0, len(tokens))
	for _, tok := range tokens {
		items = append(items, domain.ArgumentItem{Text: tok})
	}
	return items, nil
}

// Placeholders returns the distinct placeholder names used by a definition's
// argument template, in first-use order.
func Placeholders(def *domain.GeneratorDefinition) ([]string, error) {
	items, err := argumentItems(def.Command)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var names []string
	for _, item := range items {
		for _, m := range placeholder.FindAllStringSubmatch(item.Text, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				names = append(names, m[1])
			}
		}
	}
	return names, nil
}
