package bridge_test

import (
	"context"
	"testing"

	"github.com/aretw0/mediabridge/pkg/adapters/memory"
	"github.com/aretw0/mediabridge/pkg/bridge"
	"github.com/aretw0/mediabridge/pkg/config"
	"github.com/aretw0/mediabridge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const styleTransfer = `
name: Style Transfer
command:
  program: stylize
  arguments: "{Content} {Style} {Prompt} {Result}"
properties:
  input:
    - name: Content
      type: image
    - name: Style
      type: image
    - name: Prompt
      type: text
      required: false
  output:
    - name: Result
      type: image
      file-ext: .png
`

func mustParse(t *testing.T, doc string) *domain.GeneratorDefinition {
	t.Helper()
	def, err := config.Parse([]byte(doc))
	require.NoError(t, err)
	return def
}

func TestAttach_MatchesSelection(t *testing.T) {
	project := memory.NewProject()
	project.Put(domain.Strip{Key: "Photo", Kind: domain.StripImage, Channel: 1})
	project.Put(domain.Strip{ID: "painting", Key: "Painting", Kind: domain.StripImage, Channel: 2})
	project.Put(domain.Strip{Key: "Music", Kind: domain.StripSound, Channel: 3})
	project.Select("Painting", "Photo", "Music")
	ctx := context.Background()

	att, err := bridge.Attach(ctx, project, project, mustParse(t, styleTransfer), bridge.AttachOptions{FrameStart: 48, Channel: 5})
	require.NoError(t, err)

	assert.Equal(t, domain.StripSource("painting"), att.Controller.Inputs["Content"], "the active strip is matched first")

	style := att.Controller.Inputs["Style"]
	require.Equal(t, domain.SourceStrip, style.Kind)
	require.NotEmpty(t, style.StripID, "untagged strips get a stable ID")
	photo, err := project.Strip(ctx, style.StripID)
	require.NoError(t, err)
	assert.Equal(t, "Photo", photo.Key)

	assert.NotContains(t, att.Controller.Inputs, "Prompt")
	assert.Equal(t, []string{"Prompt"}, att.Unbound)

	assert.Equal(t, domain.StripImage, att.Strip.Kind)
	assert.Equal(t, "Style Transfer", att.Strip.Name)
	assert.Equal(t, 5, att.Strip.Channel)
	assert.Equal(t, 48, att.Strip.FrameStart)
	assert.Empty(t, att.Strip.FilePath)

	stored, err := project.LoadController(ctx, att.Strip.ID)
	require.NoError(t, err)
	assert.Equal(t, "Style Transfer", stored.Generator)
	assert.Equal(t, att.Controller.Inputs, stored.Inputs)
}

func TestAttach_ControllerKind(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want domain.StripKind
	}{
		{"Single Text Output", "name: T\ncommand:\n  program: p\nproperties:\n  output:\n    - name: Out\n      type: text\n", domain.StripText},
		{"Single Sound Output", "name: S\ncommand:\n  program: p\nproperties:\n  output:\n    - name: Out\n      type: sound\n", domain.StripSound},
		{"No Outputs", "name: N\ncommand:\n  program: p\n", domain.StripAdjustment},
		{"Several Outputs", "name: M\ncommand:\n  program: p\nproperties:\n  output:\n    - name: A\n      type: image\n    - name: B\n      type: text\n", domain.StripAdjustment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project := memory.NewProject()
			att, err := bridge.Attach(context.Background(), project, project, mustParse(t, tt.doc), bridge.AttachOptions{Name: "Ctl"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, att.Strip.Kind)
			assert.Equal(t, 1, att.Strip.Channel)
			assert.Equal(t, "Ctl", att.Strip.Key)
		})
	}
}

func TestRequest(t *testing.T) {
	c := &domain.Controller{
		ID:        "ctrl",
		Generator: "Style Transfer",
		Inputs: domain.Bindings{
			"Content": domain.StripSource("a"),
			"Prompt":  domain.TextSource("stored"),
		},
	}

	req := bridge.Request(c, domain.Bindings{"Prompt": domain.TextSource("override")})
	assert.Equal(t, "ctrl", req.ControllerID)
	assert.Equal(t, "Style Transfer", req.Generator)
	assert.Equal(t, domain.TextSource("override"), req.Bindings["Prompt"])
	assert.Equal(t, domain.StripSource("a"), req.Bindings["Content"])
	assert.Equal(t, domain.TextSource("stored"), c.Inputs["Prompt"], "overrides never touch stored state")
}

func TestLoad(t *testing.T) {
	project := memory.NewProject()
	ctx := context.Background()
	require.NoError(t, project.SaveController(ctx, &domain.Controller{ID: "ctrl", Generator: "G"}))

	req, err := bridge.Load(ctx, project, "ctrl", nil)
	require.NoError(t, err)
	assert.Equal(t, "G", req.Generator)

	_, err = bridge.Load(ctx, project, "missing", nil)
	assert.ErrorIs(t, err, domain.ErrControllerNotFound)
}
