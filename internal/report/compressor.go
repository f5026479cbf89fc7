package report

import (
	"io"

	"github.com/klauspost/compress/zstd"
	"google.golang.org/grpc/encoding"
	_ "google.golang.org/grpc/encoding/gzip" // registers "gzip"
)

// ZstdCompressorName is the grpc-encoding name of the zstd compressor
const ZstdCompressorName = "zstd"

func init() {
	encoding.RegisterCompressor(zstdCompressor{})
}

// zstdCompressor implements encoding.Compressor on top of klauspost/compress
type zstdCompressor struct{}

func (zstdCompressor) Name() string {
	return ZstdCompressorName
}

func (zstdCompressor) Compress(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w, zstd.WithEncoderConcurrency(1))
}

func (zstdCompressor) Decompress(r io.Reader) (io.Reader, error) {
	dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	return &zstdReader{dec: dec}, nil
}

// zstdReader releases the decoder once the stream is drained
type zstdReader struct {
	dec *zstd.Decoder
}

func (z *zstdReader) Read(p []byte) (int, error) {
	n, err := z.dec.Read(p)
	if err == io.EOF {
		z.dec.Close()
	}
	return n, err
}
