package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/mediabridge/pkg/domain"
	"github.com/aretw0/mediabridge/pkg/schema"
)

// Parse validates a generator document and maps it onto a definition.
// It either returns a fully valid definition or an error wrapping
// domain.ErrConfig and a *schema.AggregateError listing every failure.
func Parse(data []byte) (*domain.GeneratorDefinition, error) {
	raw, err := schema.ValidateYAML(documentSchema, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfig, err)
	}

	var c schema.Collector
	def := build(raw.(map[string]any), &c)
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfig, err)
	}
	return def, nil
}

// LoadFile reads and parses a generator document from disk.
func LoadFile(path string) (*domain.GeneratorDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read generator config: %w", err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

func build(doc map[string]any, c *schema.Collector) *domain.GeneratorDefinition {
	def := &domain.GeneratorDefinition{
		Name:        doc[keyName].(string),
		Description: str(doc, keyDescription),
		Command:     buildCommand(doc[keyCommand].(map[string]any), c),
	}

	if props, ok := doc[keyProperties].(map[string]any); ok {
		for i, item := range list(props, keyInput) {
			def.Inputs = append(def.Inputs, buildInput(item.(map[string]any), fmt.Sprintf("properties.input[%d]", i), c))
		}
		for i, item := range list(props, keyOutput) {
			def.Outputs = append(def.Outputs, buildOutput(item.(map[string]any), fmt.Sprintf("properties.output[%d]", i), c))
		}
	}

	checkNames(def, c)
	checkConditions(def, c)
	return def
}

func buildCommand(m map[string]any, c *schema.Collector) domain.Command {
	cmd := domain.Command{Program: m[keyProgram].(string)}

	if args, ok := m[keyArguments].(string); ok {
		cmd.Arguments = &args
	}
	for _, item := range list(m, keyArgList) {
		im := item.(map[string]any)
		cmd.ArgumentList = append(cmd.ArgumentList, domain.ArgumentItem{
			Text:              im[keyArgument].(string),
			ConditionProperty: str(im, keyIfSet),
		})
	}
	if _, hasList := m[keyArgList]; hasList && cmd.Arguments != nil {
		c.Add("command", "'arguments' and 'argument-list' are mutually exclusive", nil, 0)
	}

	if t, ok := m[keyTimeout].(int); ok {
		cmd.Timeout = &t
	}
	return cmd
}

func buildInput(m map[string]any, path string, c *schema.Collector) domain.InputSpec {
	in := domain.InputSpec{
		Name: m[keyName].(string),
		Kind: domain.MediaKind(m[keyType].(string)),
	}

	if d, ok := m[keyDefault].(string); ok {
		in.Default = &d
	}
	in.Required = in.Default == nil
	if r, ok := m[keyRequired].(bool); ok {
		in.Required = r
	}

	in.Transfer = domain.TransferFile
	if in.Kind == domain.MediaText {
		in.Transfer = domain.TransferInline
	}
	if v, ok := m[keyPassVia].(string); ok {
		in.Transfer = domain.TransferMode(v)
	}
	if in.Kind != domain.MediaText && in.Transfer == domain.TransferInline {
		c.Add(path+"."+keyPassVia, fmt.Sprintf("%s inputs must be passed via file or stream", in.Kind), string(in.Transfer), 0)
	}
	return in
}

func buildOutput(m map[string]any, path string, c *schema.Collector) domain.OutputSpec {
	out := domain.OutputSpec{
		Name:     m[keyName].(string),
		Kind:     domain.MediaKind(m[keyType].(string)),
		Transfer: domain.TransferFile,
		Required: true,
	}

	if v, ok := m[keyPassVia].(string); ok {
		out.Transfer = domain.TransferMode(v)
	}
	if out.Transfer == domain.TransferInline {
		c.Add(path+"."+keyPassVia, "outputs must be passed via file or stream", string(out.Transfer), 0)
	}
	if ext, ok := m[keyFileExt].(string); ok {
		out.FileExtension = normalizeExt(ext)
	}
	if r, ok := m[keyRequired].(bool); ok {
		out.Required = r
	}
	return out
}

// checkNames enforces one namespace for inputs and outputs, since placeholders
// must resolve unambiguously.
func checkNames(def *domain.GeneratorDefinition, c *schema.Collector) {
	seen := make(map[string]string)
	for i, in := range def.Inputs {
		path := fmt.Sprintf("properties.input[%d].name", i)
		if prev, dup := seen[in.Name]; dup {
			c.Add(path, "duplicate property name, first declared at "+prev, in.Name, 0)
			continue
		}
		seen[in.Name] = path
	}
	for i, out := range def.Outputs {
		path := fmt.Sprintf("properties.output[%d].name", i)
		if prev, dup := seen[out.Name]; dup {
			c.Add(path, "duplicate property name, first declared at "+prev, out.Name, 0)
			continue
		}
		seen[out.Name] = path
	}
}

func checkConditions(def *domain.GeneratorDefinition, c *schema.Collector) {
	for i, item := range def.Command.ArgumentList {
		if item.ConditionProperty == "" {
			continue
		}
		_, isInput := def.Input(item.ConditionProperty)
		_, isOutput := def.Output(item.ConditionProperty)
		if !isInput && !isOutput {
			c.Add(fmt.Sprintf("command.argument-list[%d].if-property-set", i),
				"does not name a declared input or output", item.ConditionProperty, 0)
		}
	}
}

func normalizeExt(ext string) string {
	ext = strings.TrimSpace(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func list(m map[string]any, key string) []any {
	l, _ := m[key].([]any)
	return l
}
