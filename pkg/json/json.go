// Package json provides JSON serialization backed by goccy/go-json, with
// encode buffers recycled through an ownership-checked pool.
package json

import (
	"bytes"
	"io"

	gojson "github.com/goccy/go-json"

	"github.com/ajitpratap0/recycler/pkg/pool"
)

const (
	bufferSize = 4096
	// buffers that grew past this are left to the garbage collector
	maxPooledBuffer = 1024 * 1024
	maxFreeBuffers  = 64
)

var buffers = newBufferPool()

func newBufferPool() *pool.Locked[bytes.Buffer] {
	p, err := pool.NewLocked(
		pool.WithNew(func() *bytes.Buffer { return bytes.NewBuffer(make([]byte, 0, bufferSize)) }),
		pool.WithOnRelease((*bytes.Buffer).Reset),
		pool.WithMaxSize[bytes.Buffer](maxFreeBuffers),
	)
	if err != nil {
		panic(err)
	}
	return p
}

// GetBuffer gets an empty pooled buffer
func GetBuffer() *bytes.Buffer {
	// the factory cannot fail
	buf, _ := buffers.Reserve()
	return buf
}

// PutBuffer returns a buffer obtained from GetBuffer. Buffers from anywhere
// else are refused with an error matching pool.ErrNotOwned. Owned buffers
// that grew past maxPooledBuffer are dropped.
func PutBuffer(buf *bytes.Buffer) error {
	if buffers.Owns(buf) && buf.Cap() > maxPooledBuffer {
		return nil
	}
	return buffers.Release(buf)
}

// BufferPool exposes the buffer pool for metrics collection
func BufferPool() *pool.Locked[bytes.Buffer] {
	return buffers
}

// Marshal is a drop-in replacement for json.Marshal
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// Unmarshal is a drop-in replacement for json.Unmarshal
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// MarshalIndent is a drop-in replacement for json.MarshalIndent
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return gojson.MarshalIndent(v, prefix, indent)
}

// MarshalToWriter encodes v followed by a newline into a pooled buffer and
// writes it to w in one call.
func MarshalToWriter(w io.Writer, v interface{}) error {
	return encode(w, v, "", "")
}

// MarshalIndentToWriter is MarshalToWriter with indentation.
func MarshalIndentToWriter(w io.Writer, v interface{}, prefix, indent string) error {
	return encode(w, v, prefix, indent)
}

func encode(w io.Writer, v interface{}, prefix, indent string) error {
	buf := GetBuffer()
	defer func() { _ = PutBuffer(buf) }()

	enc := gojson.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if prefix != "" || indent != "" {
		enc.SetIndent(prefix, indent)
	}
	if err := enc.Encode(v); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// MarshalLines encodes each value on its own line (JSON Lines).
func MarshalLines(w io.Writer, values ...interface{}) error {
	buf := GetBuffer()
	defer func() { _ = PutBuffer(buf) }()

	enc := gojson.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	for _, v := range values {
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}
