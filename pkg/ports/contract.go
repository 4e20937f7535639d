package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/mediabridge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunTimelineContract runs a suite of tests to verify that a Timeline
// implementation adheres to the defined interface contract.
func RunTimelineContract(t *testing.T, tl Timeline) {
	ctx := context.Background()
	suffix := time.Now().Format("150405.000000")

	t.Run("Add and Lookup", func(t *testing.T) {
		added, err := tl.AddStrip(ctx, domain.NewStrip{
			ID:         "contract-a-" + suffix,
			Name:       "Prompt",
			Kind:       domain.StripText,
			Channel:    3,
			FrameStart: 10,
			Text:       "a red fox",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, added.Key)

		got, err := tl.Strip(ctx, added.ID)
		require.NoError(t, err)
		assert.Equal(t, "a red fox", got.Text)
		assert.Equal(t, 3, got.Channel)
		assert.Equal(t, 10, got.FrameStart)
		assert.Equal(t, domain.StripText, got.Kind)
	})

	t.Run("Lookup Non-Existent", func(t *testing.T) {
		_, err := tl.Strip(ctx, "missing-"+suffix)
		assert.ErrorIs(t, err, domain.ErrStripNotFound)
	})

	t.Run("Keys Are Unique", func(t *testing.T) {
		a, err := tl.AddStrip(ctx, domain.NewStrip{ID: "contract-k1-" + suffix, Name: "Twin", Kind: domain.StripText})
		require.NoError(t, err)
		b, err := tl.AddStrip(ctx, domain.NewStrip{ID: "contract-k2-" + suffix, Name: "Twin", Kind: domain.StripText})
		require.NoError(t, err)
		assert.NotEqual(t, a.Key, b.Key)
	})

	t.Run("SetMedia", func(t *testing.T) {
		id := "contract-m-" + suffix
		_, err := tl.AddStrip(ctx, domain.NewStrip{ID: id, Name: "Shot", Kind: domain.StripImage, Channel: 2})
		require.NoError(t, err)

		require.NoError(t, tl.SetMedia(ctx, id, "/renders/shot.png"))
		got, err := tl.Strip(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "/renders/shot.png", got.FilePath)
		assert.Equal(t, "Shot", got.Name)
		assert.Equal(t, 2, got.Channel)

		assert.ErrorIs(t, tl.SetMedia(ctx, "missing-"+suffix, "/x.png"), domain.ErrStripNotFound)
	})

	t.Run("SetText", func(t *testing.T) {
		id := "contract-t-" + suffix
		_, err := tl.AddStrip(ctx, domain.NewStrip{ID: id, Name: "Caption", Kind: domain.StripText, Text: "old"})
		require.NoError(t, err)

		require.NoError(t, tl.SetText(ctx, id, "new"))
		got, err := tl.Strip(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "new", got.Text)

		assert.ErrorIs(t, tl.SetText(ctx, "missing-"+suffix, "x"), domain.ErrStripNotFound)
	})

	t.Run("AssignID", func(t *testing.T) {
		added, err := tl.AddStrip(ctx, domain.NewStrip{Name: "Untagged", Kind: domain.StripSound})
		require.NoError(t, err)

		id := "contract-assigned-" + suffix
		require.NoError(t, tl.AssignID(ctx, added.Key, id))

		got, err := tl.Strip(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, added.Key, got.Key)

		assert.ErrorIs(t, tl.AssignID(ctx, "missing-"+suffix, "x"), domain.ErrStripNotFound)
	})
}

// RunControllerStoreContract verifies a ControllerStore implementation.
func RunControllerStoreContract(t *testing.T, store ControllerStore) {
	ctx := context.Background()
	id := "contract-controller-" + time.Now().Format("150405.000000")

	t.Run("Save and Load", func(t *testing.T) {
		c := &domain.Controller{
			ID:        id,
			Generator: "Echo",
			Inputs: domain.Bindings{
				"Msg":   domain.TextSource(""),
				"Image": domain.StripSource("strip-1"),
			},
		}
		c.LinkOutput("Out", "strip-2")
		require.NoError(t, store.SaveController(ctx, c))

		loaded, err := store.LoadController(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Echo", loaded.Generator)
		assert.Equal(t, domain.TextSource(""), loaded.Inputs["Msg"])
		assert.Equal(t, domain.StripSource("strip-1"), loaded.Inputs["Image"])
		assert.Equal(t, []domain.OutputLink{{Name: "Out", StripID: "strip-2"}}, loaded.Outputs)
	})

	t.Run("Load Is A Copy", func(t *testing.T) {
		loaded, err := store.LoadController(ctx, id)
		require.NoError(t, err)
		loaded.LinkOutput("Extra", "strip-9")

		again, err := store.LoadController(ctx, id)
		require.NoError(t, err)
		_, ok := again.OutputStrip("Extra")
		assert.False(t, ok, "mutations must not leak without SaveController")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.LoadController(ctx, "missing-"+id)
		assert.ErrorIs(t, err, domain.ErrControllerNotFound)
	})
}
