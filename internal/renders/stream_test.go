package renders

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanix-darker/pyrev/internal/provider"
)

func streamOf(err error, parts ...string) provider.StreamResult {
	chunks := make(chan provider.StreamChunk, len(parts)+1)
	errs := make(chan error, 1)
	for _, p := range parts {
		chunks <- provider.StreamChunk{Content: p}
	}
	chunks <- provider.StreamChunk{Done: true}
	close(chunks)
	errs <- err
	close(errs)
	return provider.StreamResult{Chunks: chunks, Err: errs}
}

func TestRenderStreamAccumulates(t *testing.T) {
	content, err := RenderStream(streamOf(nil, "Hello ", "world", "!"))
	require.NoError(t, err)
	assert.Equal(t, "Hello world!", content)
}

func TestRenderStreamPropagatesError(t *testing.T) {
	boom := errors.New("stream interrupted")
	content, err := RenderStream(streamOf(boom, "partial"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "partial", content)
}

func TestRenderStreamEmpty(t *testing.T) {
	content, err := RenderStream(streamOf(nil))
	require.NoError(t, err)
	assert.Empty(t, content)
}
