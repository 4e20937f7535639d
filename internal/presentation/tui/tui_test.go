package tui

import (
	"bytes"
	"testing"

	"github.com/aretw0/mediabridge/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestReporter_PlainOutput(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, false)
	r.Report(domain.Infof("c1", "run finished"))
	r.Report(domain.Errorf("", "no project"))
	r.RequestRedraw()

	assert.Equal(t, ">>> [info] c1: run finished\n>>> [error] no project\n", buf.String())
}

func TestReporter_Quiet(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, true)
	r.Report(domain.Infof("c1", "started"))
	r.Report(domain.Warningf("c1", "stderr output"))

	assert.Equal(t, ">>> [warning] c1: stderr output\n", buf.String())
}

func TestDescribeMarkdown(t *testing.T) {
	timeout := 30
	args := "-o {Out} {Prompt}"
	dflt := "a cat"
	def := &domain.GeneratorDefinition{
		Name:        "Paint",
		Description: "Text to image",
		Command:     domain.Command{Program: "paint", Arguments: &args, Timeout: &timeout},
		Inputs:      []domain.InputSpec{{Name: "Prompt", Kind: domain.MediaText, Transfer: domain.TransferInline, Default: &dflt}},
		Outputs:     []domain.OutputSpec{{Name: "Out", Kind: domain.MediaImage, Transfer: domain.TransferFile, Required: true}},
	}

	md := DescribeMarkdown(def)
	assert.Contains(t, md, "# Paint\n")
	assert.Contains(t, md, "paint -o {Out} {Prompt}")
	assert.Contains(t, md, "Timeout: 30s")
	assert.Contains(t, md, "| Prompt | text | text | no | `a cat` |")
	assert.Contains(t, md, "| Out | image | file | .tmp |")
}

func TestDescribe_NotATerminal(t *testing.T) {
	var buf bytes.Buffer
	def := &domain.GeneratorDefinition{Name: "Echo", Command: domain.Command{Program: "echo"}}
	assert.NoError(t, Describe(&buf, def))
	assert.Equal(t, DescribeMarkdown(def), buf.String())
}
