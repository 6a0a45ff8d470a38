package scanline

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// MaxRecordSize bounds a single dumped line record.
const MaxRecordSize = 1 << 20

// Writer streams lines as length-prefixed MsgPack records:
// a 4-byte big-endian length followed by the encoded line.
type Writer struct {
	w     *bufio.Writer
	lines uint64
}

// NewWriter creates a line dump writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write appends one line record.
func (w *Writer) Write(l *Line) error {
	data, err := msgpack.Marshal(l)
	if err != nil {
		return fmt.Errorf("failed to marshal line: %w", err)
	}
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(data)))
	if _, err := w.w.Write(prefix[:]); err != nil {
		return fmt.Errorf("failed to write length prefix: %w", err)
	}
	if _, err := w.w.Write(data); err != nil {
		return fmt.Errorf("failed to write line record: %w", err)
	}
	w.lines++
	return nil
}

// Lines returns the number of records written.
func (w *Writer) Lines() uint64 {
	return w.lines
}

// Flush writes any buffered records to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Reader reads records produced by Writer.
type Reader struct {
	r   *bufio.Reader
	buf []byte
}

// NewReader creates a line dump reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Read returns the next line, or io.EOF at a clean end of the stream.
func (r *Reader) Read() (*Line, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r.r, prefix[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("truncated length prefix: %w", err)
		}
		return nil, err
	}
	size := binary.BigEndian.Uint32(prefix[:])
	if size > MaxRecordSize {
		return nil, fmt.Errorf("line record of %d bytes exceeds %d", size, MaxRecordSize)
	}
	if cap(r.buf) < int(size) {
		r.buf = make([]byte, size)
	}
	r.buf = r.buf[:size]
	if _, err := io.ReadFull(r.r, r.buf); err != nil {
		return nil, fmt.Errorf("truncated line record: %w", err)
	}

	l := &Line{}
	if err := msgpack.Unmarshal(r.buf, l); err != nil {
		return nil, fmt.Errorf("failed to unmarshal line: %w", err)
	}
	return l, nil
}
