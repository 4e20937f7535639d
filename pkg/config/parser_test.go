package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/mediabridge/pkg/domain"
	"github.com/aretw0/mediabridge/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const echoDoc = `
name: Echo
description: Writes a greeting
command:
  program: echo
  argument-list:
    - argument: "{Msg}"
    - argument: "--out {Out}"
      if-property-set: Out
  timeout: "10"
properties:
  input:
    - name: Msg
      type: Text
    - name: Style
      type: image
      default-value: /tmp/style.png
  output:
    - name: Out
      type: image
      file-ext: png
`

func TestParse_FullDocument(t *testing.T) {
	def, err := Parse([]byte(echoDoc))
	require.NoError(t, err)

	assert.Equal(t, "Echo", def.Name)
	assert.Equal(t, "Writes a greeting", def.Description)
	assert.Equal(t, "echo", def.Command.Program)
	assert.Nil(t, def.Command.Arguments)
	require.NotNil(t, def.Command.Timeout)
	assert.Equal(t, 10, *def.Command.Timeout, "integers coerce from quoted scalars")

	require.Len(t, def.Command.ArgumentList, 2)
	assert.Equal(t, domain.ArgumentItem{Text: "{Msg}"}, def.Command.ArgumentList[0])
	assert.Equal(t, "Out", def.Command.ArgumentList[1].ConditionProperty)

	require.Len(t, def.Inputs, 2)
	msg := def.Inputs[0]
	assert.Equal(t, domain.MediaText, msg.Kind, "kinds are case-insensitive")
	assert.Equal(t, domain.TransferInline, msg.Transfer, "text defaults to inline")
	assert.True(t, msg.Required, "required defaults to true without a default value")

	style := def.Inputs[1]
	assert.Equal(t, domain.TransferFile, style.Transfer, "media defaults to file")
	assert.False(t, style.Required, "required defaults to false with a default value")
	require.NotNil(t, style.Default)
	assert.Equal(t, "/tmp/style.png", *style.Default)

	require.Len(t, def.Outputs, 1)
	assert.Equal(t, ".png", def.Outputs[0].FileExtension, "extensions are normalized")
	assert.True(t, def.Outputs[0].Required)
	assert.Equal(t, domain.TransferFile, def.Outputs[0].Transfer)
}

func TestParse_ArgumentString(t *testing.T) {
	def, err := Parse([]byte(`
name: Hello
command:
  program: echo
  arguments: hello
`))
	require.NoError(t, err)
	require.NotNil(t, def.Command.Arguments)
	assert.Equal(t, "hello", *def.Command.Arguments)
	assert.Empty(t, def.Inputs)
	assert.Empty(t, def.Outputs)
	assert.Nil(t, def.Command.Timeout)
}

func TestParse_NoArguments(t *testing.T) {
	def, err := Parse([]byte("name: Bare\ncommand:\n  program: true\n"))
	require.NoError(t, err)
	assert.Nil(t, def.Command.Arguments)
	assert.Empty(t, def.Command.ArgumentList)
}

func TestParse_ExplicitRequired(t *testing.T) {
	def, err := Parse([]byte(`
name: Opt
command:
  program: gen
properties:
  input:
    - name: Prompt
      type: text
      required: no
      pass-via: FILE
  output:
    - name: Out
      type: sound
      required: false
`))
	require.NoError(t, err)
	assert.False(t, def.Inputs[0].Required)
	assert.Equal(t, domain.TransferFile, def.Inputs[0].Transfer)
	assert.False(t, def.Outputs[0].Required)
	assert.Equal(t, ".tmp", def.Outputs[0].Extension())
}

func TestParse_StreamIsAccepted(t *testing.T) {
	def, err := Parse([]byte(`
name: Streamer
command:
  program: gen
properties:
  input:
    - name: Clip
      type: movie
      pass-via: stream
`))
	require.NoError(t, err)
	assert.Equal(t, domain.TransferStream, def.Inputs[0].Transfer)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		keys []string
	}{
		{
			name: "both argument forms",
			doc:  "name: X\ncommand:\n  program: p\n  arguments: a\n  argument-list:\n    - argument: b\n",
			keys: []string{"command"},
		},
		{
			name: "missing program",
			doc:  "name: X\ncommand:\n  arguments: a\n",
			keys: []string{"command.program"},
		},
		{
			name: "unknown key",
			doc:  "name: X\ncommand:\n  program: p\n  shell: bash\n",
			keys: []string{"command.shell"},
		},
		{
			name: "inline image",
			doc:  "name: X\ncommand:\n  program: p\nproperties:\n  input:\n    - name: I\n      type: image\n      pass-via: text\n",
			keys: []string{"properties.input[0].pass-via"},
		},
		{
			name: "inline output",
			doc:  "name: X\ncommand:\n  program: p\nproperties:\n  output:\n    - name: O\n      type: text\n      pass-via: text\n",
			keys: []string{"properties.output[0].pass-via"},
		},
		{
			name: "unknown kind",
			doc:  "name: X\ncommand:\n  program: p\nproperties:\n  input:\n    - name: I\n      type: video\n",
			keys: []string{"properties.input[0].type"},
		},
		{
			name: "duplicate names",
			doc:  "name: X\ncommand:\n  program: p\nproperties:\n  input:\n    - name: A\n      type: text\n  output:\n    - name: A\n      type: text\n",
			keys: []string{"properties.output[0].name"},
		},
		{
			name: "unknown condition",
			doc:  "name: X\ncommand:\n  program: p\n  argument-list:\n    - argument: a\n      if-property-set: Ghost\n",
			keys: []string{"command.argument-list[0].if-property-set"},
		},
		{
			name: "negative timeout",
			doc:  "name: X\ncommand:\n  program: p\n  timeout: -5\n",
			keys: []string{"command.timeout"},
		},
		{
			name: "everything at once",
			doc:  "name: ''\ncommand:\n  program: p\n  timeout: soon\nextra: 1\n",
			keys: []string{"extra", "name", "command.timeout"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Nil(t, def)
			assert.ErrorIs(t, err, domain.ErrConfig)

			var keys []string
			for _, e := range schema.ValidationErrors(err) {
				keys = append(keys, e.(*schema.ValidationError).Key)
			}
			assert.ElementsMatch(t, tt.keys, keys)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "echo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(echoDoc), 0644))

	def, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Echo", def.Name)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
