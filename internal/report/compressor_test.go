package report

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
)

func TestZstdCompressor_Registered(t *testing.T) {
	c := encoding.GetCompressor(ZstdCompressorName)
	require.NotNil(t, c)
	assert.Equal(t, ZstdCompressorName, c.Name())
}

func TestZstdCompressor_RoundTrip(t *testing.T) {
	c := zstdCompressor{}
	payload := bytes.Repeat([]byte("RP_MESSAGE#BASE64#"), 512)

	var buf bytes.Buffer
	w, err := c.Compress(&buf)
	require.NoError(t, err)
	_, err = w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Less(t, buf.Len(), len(payload))

	r, err := c.Decompress(&buf)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}
