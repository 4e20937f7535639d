package cli

import (
	"errors"
	"testing"

	"github.com/aretw0/mediabridge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBinding(t *testing.T) {
	tests := []struct {
		in   string
		name string
		want domain.Source
	}{
		{"Prompt=text:a red fox", "Prompt", domain.TextSource("a red fox")},
		{"Prompt=text:", "Prompt", domain.TextSource("")},
		{"Image=file:/tmp/in.png", "Image", domain.FileSource("/tmp/in.png")},
		{"Image=strip:abc", "Image", domain.StripSource("abc")},
		{"Prompt=hello", "Prompt", domain.TextSource("hello")},
		{"Url=https://example.com", "Url", domain.TextSource("https://example.com")},
		{" Seed =42", "Seed", domain.TextSource("42")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			name, src, err := ParseBinding(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.want, src)
		})
	}

	for _, bad := range []string{"Prompt", "=x", "Image=file:", "Image=strip:"} {
		_, _, err := ParseBinding(bad)
		assert.ErrorIs(t, err, ErrBadBinding, bad)
	}
}

func TestParseBindings_Duplicate(t *testing.T) {
	_, err := ParseBindings([]string{"A=1", "A=2"})
	assert.ErrorIs(t, err, ErrBadBinding)

	b, err := ParseBindings(nil)
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestExitCode(t *testing.T) {
	three := 3
	assert.Equal(t, 0, ExitCode(domain.RunStatus{Phase: domain.PhaseFinished}, nil))
	assert.Equal(t, 3, ExitCode(domain.RunStatus{Phase: domain.PhaseErrored, ExitCode: &three}, domain.ErrProcess))
	assert.Equal(t, 130, ExitCode(domain.RunStatus{Phase: domain.PhaseCancelled}, domain.ErrCancelled))
	assert.Equal(t, 1, ExitCode(domain.RunStatus{Phase: domain.PhaseErrored}, errors.Join(domain.ErrBinding)))
	assert.Equal(t, 1, ExitCode(domain.RunStatus{Phase: domain.PhaseErrored}, domain.ErrTimeout))
}
