package protocol

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
)

// Magic identifies an FSH frame: 'F', 'S', 'H', protocol version 1.
var Magic = [4]byte{'F', 'S', 'H', 0x01}

// DefaultMaxFrameSize caps a single frame's payload.
const DefaultMaxFrameSize = 10 * 1024 * 1024 // 10 MiB

const lengthFieldSize = 4
const headerSize = len(Magic) + lengthFieldSize

// Decoder reads FSH frames from a byte stream, decoding each payload into
// a concrete protocol message.
//
// A Decoder is not safe for concurrent use; each session owns exactly one
// reader goroutine.
type Decoder struct {
	r            *bufio.Reader
	maxFrameSize uint32
	synced       bool // true once the decoder has delivered at least one frame
}

// NewDecoder wraps r in a Decoder with the default max frame size.
func NewDecoder(r io.Reader) *Decoder {
	return NewDecoderSize(r, DefaultMaxFrameSize)
}

// NewDecoderSize wraps r in a Decoder that rejects frames over maxFrameSize.
func NewDecoderSize(r io.Reader, maxFrameSize uint32) *Decoder {
	return &Decoder{r: bufio.NewReader(r), maxFrameSize: maxFrameSize}
}

// Next reads and decodes the next frame.
//
// On a fresh stream (no frame yet delivered), a bad magic is fatal: it is
// returned immediately as ErrProtocol with no resync attempt. Once at least
// one frame has been delivered, a bad magic instead discards one byte and
// retries, so a corrupted segment cannot permanently desynchronize a
// long-lived connection. A successful magic followed by a payload that
// fails to decode discards exactly the magic (not the length or payload
// bytes already consumed) and re-scans from there.
func (d *Decoder) Next() (any, error) {
	for {
		var magic [4]byte
		if _, err := io.ReadFull(d.r, magic[:]); err != nil {
			return nil, fmt.Errorf("%w: read magic: %w", ErrNetworkError, err)
		}

		if magic != Magic {
			if !d.synced {
				return nil, fmt.Errorf("%w: bad magic on fresh stream", ErrProtocol)
			}
			// Drop the first byte of the mismatched window and rescan the rest.
			if err := d.pushBack(magic[1:]); err != nil {
				return nil, fmt.Errorf("%w: resync: %w", ErrNetworkError, err)
			}
			continue
		}

		var lenBuf [lengthFieldSize]byte
		if _, err := io.ReadFull(d.r, lenBuf[:]); err != nil {
			return nil, fmt.Errorf("%w: read length: %w", ErrNetworkError, err)
		}
		length := binary.BigEndian.Uint32(lenBuf[:])

		if length > d.maxFrameSize {
			return nil, fmt.Errorf("%w: message too large (%d bytes, max %d)", ErrProtocol, length, d.maxFrameSize)
		}

		payload := make([]byte, length)
		if _, err := io.ReadFull(d.r, payload); err != nil {
			return nil, fmt.Errorf("%w: read payload: %w", ErrNetworkError, err)
		}

		msg, err := Decode(payload)
		if err != nil {
			if !d.synced {
				return nil, err
			}
			// Discard exactly the magic; re-scan treating length+payload as data.
			if err := d.pushBack(append(lenBuf[:], payload...)); err != nil {
				return nil, fmt.Errorf("%w: resync: %w", ErrNetworkError, err)
			}
			continue
		}

		d.synced = true
		return msg, nil
	}
}

// pushBack makes b available to be read again as the front of the stream.
func (d *Decoder) pushBack(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	mr := io.MultiReader(newByteSliceReader(b), d.r)
	d.r = bufio.NewReaderSize(mr, d.r.Size())
	return nil
}

type byteSliceReader struct {
	b []byte
}

func newByteSliceReader(b []byte) *byteSliceReader {
	cp := make([]byte, len(b))
	copy(cp, b)
	return &byteSliceReader{b: cp}
}

func (r *byteSliceReader) Read(p []byte) (int, error) {
	if len(r.b) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.b)
	r.b = r.b[n:]
	return n, nil
}

// Writer serializes frame writes over a single connection so that messages
// from different command streams never interleave at frame granularity
//.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter wraps w in a Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteMessage encodes msg and writes it as one frame, flushing immediately.
func (fw *Writer) WriteMessage(msg any) error {
	payload, err := Encode(msg)
	if err != nil {
		return err
	}
	return fw.WriteFrame(payload)
}

// WriteFrame writes a pre-encoded payload as a single magic-guarded frame.
func (fw *Writer) WriteFrame(payload []byte) error {
	if len(payload) > DefaultMaxFrameSize {
		return fmt.Errorf("%w: message too large (%d bytes, max %d)", ErrProtocol, len(payload), DefaultMaxFrameSize)
	}

	frame := make([]byte, headerSize+len(payload))
	copy(frame[0:4], Magic[:])
	binary.BigEndian.PutUint32(frame[4:8], uint32(len(payload)))
	copy(frame[8:], payload)

	fw.mu.Lock()
	defer fw.mu.Unlock()

	if _, err := fw.w.Write(frame); err != nil {
		return fmt.Errorf("%w: write frame: %w", ErrNetworkError, err)
	}
	if f, ok := fw.w.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("%w: flush frame: %w", ErrNetworkError, err)
		}
	}
	return nil
}
