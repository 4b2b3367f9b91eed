package wire

import (
	"bufio"
	"bytes"
	"encoding/gob"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// initialBufferSize and flushChunkSize match the spec's "1 MiB initial
// buffer and 8 KiB flush chunk" encoder sizing for outbound messages that
// may exceed the transport's default framing.
const (
	initialBufferSize = 1 << 20
	flushChunkSize    = 8 << 10
)

// Marshal gob-encodes v and gzip-compresses the result.
func Marshal(v interface{}) ([]byte, error) {
	out := bytes.NewBuffer(make([]byte, 0, initialBufferSize))

	gz, err := gzip.NewWriterLevel(out, gzip.BestSpeed)
	if err != nil {
		return nil, errors.Wrap(err, "creating gzip writer")
	}
	buffered := bufio.NewWriterSize(gz, flushChunkSize)

	if err := gob.NewEncoder(buffered).Encode(v); err != nil {
		return nil, errors.Wrap(err, "gob-encoding wire value")
	}
	if err := buffered.Flush(); err != nil {
		return nil, errors.Wrap(err, "flushing encoder buffer")
	}
	if err := gz.Close(); err != nil {
		return nil, errors.Wrap(err, "closing gzip writer")
	}

	return out.Bytes(), nil
}

// Unmarshal gzip-decompresses data and gob-decodes it into v. The decoder
// uses default buffer sizing, per the spec's "decoder uses defaults".
func Unmarshal(data []byte, v interface{}) error {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(err, "creating gzip reader")
	}
	defer gz.Close()

	if err := gob.NewDecoder(gz).Decode(v); err != nil {
		return errors.Wrap(err, "gob-decoding wire value")
	}
	return nil
}
