package hitl

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderPortReadsLine(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	port := NewReaderPort(strings.NewReader("looks good\nnext\n"), &out)

	value, err := port.RequestUserInput(context.Background(), "review", "draft text")
	require.NoError(t, err)
	assert.Equal(t, "looks good", value)

	prompt := out.String()
	assert.Contains(t, prompt, "review")
	assert.Contains(t, prompt, "draft text")

	value, err = port.RequestUserInput(context.Background(), "review", "")
	require.NoError(t, err)
	assert.Equal(t, "next", value)
}

func TestReaderPortTrimsCarriageReturn(t *testing.T) {
	t.Parallel()

	port := NewReaderPort(strings.NewReader("ok\r\n"), &strings.Builder{})
	value, err := port.RequestUserInput(context.Background(), "n", "")
	require.NoError(t, err)
	assert.Equal(t, "ok", value)
}

func TestReaderPortEOF(t *testing.T) {
	t.Parallel()

	port := NewReaderPort(strings.NewReader(""), &strings.Builder{})
	_, err := port.RequestUserInput(context.Background(), "n", "")
	assert.Error(t, err)
}

func TestReaderPortLastLineWithoutNewline(t *testing.T) {
	t.Parallel()

	port := NewReaderPort(strings.NewReader("final answer"), &strings.Builder{})
	value, err := port.RequestUserInput(context.Background(), "n", "")
	require.NoError(t, err)
	assert.Equal(t, "final answer", value)
}
