package resolver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/mediabridge/pkg/domain"
	"github.com/google/uuid"
)

// value is a resolved input before transfer conversion.
type value struct {
	data   string
	isText bool // data is content rather than a path
}

func (run *resolution) inputValue(in domain.InputSpec) (string, error) {
	v, present, err := run.rawValue(in)
	if err != nil {
		return "", err
	}
	if !present {
		return "", nil
	}
	return run.transfer(in, v)
}

// rawValue applies binding, then default, then required. A binding to an empty
// strip link or file path counts as unbound. present is false for an optional
// input with neither, which resolves to the empty string.
func (run *resolution) rawValue(in domain.InputSpec) (value, bool, error) {
	if src, ok := run.bindings[in.Name]; ok && src.IsSet() {
		v, err := run.fromSource(in, src)
		return v, err == nil, err
	}
	if in.Default != nil {
		return value{data: *in.Default, isText: in.Kind == domain.MediaText}, true, nil
	}
	if in.Required {
		return value{}, false, fmt.Errorf("%w: required input %q is not bound", domain.ErrBinding, in.Name)
	}
	return value{}, false, nil
}

func (run *resolution) fromSource(in domain.InputSpec, src domain.Source) (value, error) {
	switch src.Kind {
	case domain.SourceText:
		if in.Kind != domain.MediaText {
			return value{}, fmt.Errorf("%w: input %q expects %s, got a text literal", domain.ErrBinding, in.Name, in.Kind)
		}
		return value{data: src.Text, isText: true}, nil

	case domain.SourceFile:
		if src.Path == "" {
			return value{}, fmt.Errorf("%w: input %q is bound to an empty file path", domain.ErrBinding, in.Name)
		}
		abs, err := filepath.Abs(src.Path)
		if err != nil {
			return value{}, fmt.Errorf("%w: input %q: %v", domain.ErrBinding, in.Name, err)
		}
		return value{data: abs}, nil

	case domain.SourceStrip:
		return run.fromStrip(in, src.StripID)
	}
	return value{}, fmt.Errorf("%w: input %q has no usable binding", domain.ErrBinding, in.Name)
}

// fromStrip dereferences a strip through its kind: text strips yield their
// content, media strips their file path.
func (run *resolution) fromStrip(in domain.InputSpec, id string) (value, error) {
	if id == "" {
		return value{}, fmt.Errorf("%w: input %q is bound to no strip", domain.ErrBinding, in.Name)
	}
	strip, err := run.strips.Strip(run.ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrStripNotFound) {
			return value{}, fmt.Errorf("%w: input %q is linked to strip %s, which no longer exists", domain.ErrBinding, in.Name, id)
		}
		return value{}, fmt.Errorf("%w: input %q: %v", domain.ErrBinding, in.Name, err)
	}

	kind, ok := strip.Kind.MediaKind()
	if !ok {
		return value{}, fmt.Errorf("%w: input %q: %s strips carry no content", domain.ErrBinding, in.Name, strip.Kind)
	}
	if kind == domain.MediaText {
		return value{data: strip.Text, isText: true}, nil
	}
	if strip.FilePath == "" {
		return value{}, fmt.Errorf("%w: input %q: strip %q has no media file", domain.ErrBinding, in.Name, strip.Name)
	}
	return value{data: strip.FilePath}, nil
}

func (run *resolution) transfer(in domain.InputSpec, v value) (string, error) {
	switch in.Transfer {
	case domain.TransferInline:
		if v.isText {
			return v.data, nil
		}
		content, err := os.ReadFile(v.data)
		if err != nil {
			return "", fmt.Errorf("%w: input %q: %v", domain.ErrBinding, in.Name, err)
		}
		return string(content), nil

	case domain.TransferFile:
		if !v.isText {
			return v.data, nil
		}
		return run.writeText(in, v.data)

	case domain.TransferStream:
		return "", fmt.Errorf("%w: stream transfer for input %q", domain.ErrNotImplemented, in.Name)
	}
	return "", fmt.Errorf("%w: input %q has unknown transfer mode %q", domain.ErrBinding, in.Name, in.Transfer)
}

func (run *resolution) writeText(in domain.InputSpec, text string) (string, error) {
	p := filepath.Join(run.scratchDir, uuid.NewString()+domain.TextTempExtension)
	if err := os.WriteFile(p, []byte(text), 0600); err != nil {
		return "", fmt.Errorf("%w: input %q: %v", domain.ErrBinding, in.Name, err)
	}
	run.temps = append(run.temps, p)
	return p, nil
}
