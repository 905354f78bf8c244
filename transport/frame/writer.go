// Package frame is a block-buffered, pluggable-compressor transport
// framing for batches of serialized records: the dispatch driver reads
// discrete messages off a connection, and a sender wants to batch many
// small records into a few compressed blocks rather than flush one block
// per record.
//
// Grounded on the teacher's encoding/bgzf.Writer: accumulate uncompressed
// bytes until a block boundary, hand the block to a pluggable compressor
// factory, and track a virtual offset into the stream. The teacher's
// compressFactory wraps libdeflate/zlibng (cgo); here it wraps the
// snappy and klauspost/compress codecs instead, and the bgzf-specific gzip
// header rewriting is replaced by a plain length-prefixed block header
// since this format has no BAM-compatibility requirement to satisfy.
package frame

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/flate"
)

const (
	// DefaultUncompressedBlockSize mirrors the teacher's bgzf default: large
	// enough to amortize per-block overhead, small enough to keep memory
	// bounded per in-flight block.
	DefaultUncompressedBlockSize = 0x0ff00

	frameHeaderSize = 8
)

// CompressFactory creates a compressor writing to w. Implementations may
// keep internal state (e.g. a reusable flate.Writer) and Reset it across
// calls instead of allocating fresh each time, as the teacher's
// deflateFactory does.
type CompressFactory interface {
	New(w io.Writer) (io.WriteCloser, error)
}

// SnappyFactory produces snappy block writers: fast, low compression
// ratio, no tunable level.
type SnappyFactory struct{}

func (SnappyFactory) New(w io.Writer) (io.WriteCloser, error) {
	return snappy.NewBufferedWriter(w), nil
}

// FlateFactory produces klauspost/compress's drop-in flate writer at
// Level: slower than snappy, smaller output.
type FlateFactory struct {
	Level int
}

func (f FlateFactory) New(w io.Writer) (io.WriteCloser, error) {
	return flate.NewWriter(w, f.Level)
}

// Writer batches Write calls into fixed-size uncompressed blocks and
// compresses each block through factory as it fills.
type Writer struct {
	factory    CompressFactory
	blockSize  int
	w          io.Writer
	original   bytes.Buffer
	compressed bytes.Buffer
	coffset    uint64
}

// NewWriter returns a Writer flushing compressed blocks to w, using
// factory to compress each block of at most DefaultUncompressedBlockSize
// uncompressed bytes.
func NewWriter(w io.Writer, factory CompressFactory) *Writer {
	return NewWriterSize(w, factory, DefaultUncompressedBlockSize)
}

// NewWriterSize is NewWriter with an explicit uncompressed block size.
func NewWriterSize(w io.Writer, factory CompressFactory, blockSize int) *Writer {
	return &Writer{factory: factory, blockSize: blockSize, w: w}
}

// Write appends buf to the pending block, flushing completed blocks to the
// underlying writer as they fill.
func (w *Writer) Write(buf []byte) (int, error) {
	for i := 0; i < len(buf); {
		end := len(buf)
		if limit := i + w.blockSize - w.original.Len(); limit < end {
			end = limit
		}
		n, _ := w.original.Write(buf[i:end])
		i += n
		if err := w.tryCompress(false); err != nil {
			return i, err
		}
	}
	return len(buf), nil
}

// Close flushes any partial block and closes the frame.
func (w *Writer) Close() error {
	return w.tryCompress(true)
}

func (w *Writer) tryCompress(flush bool) error {
	for w.original.Len() >= w.blockSize || (flush && w.original.Len() > 0) {
		n := w.original.Len()
		if n > w.blockSize {
			n = w.blockSize
		}
		chunk := w.original.Next(n)

		w.compressed.Reset()
		cw, err := w.factory.New(&w.compressed)
		if err != nil {
			return err
		}
		if _, err := cw.Write(chunk); err != nil {
			return err
		}
		if err := cw.Close(); err != nil {
			return err
		}

		var hdr [frameHeaderSize]byte
		binary.LittleEndian.PutUint32(hdr[0:4], uint32(w.compressed.Len()))
		binary.LittleEndian.PutUint32(hdr[4:8], uint32(len(chunk)))
		if w.compressed.Len() == 0 && len(chunk) == 0 {
			return fmt.Errorf("frame: refusing to write an empty block")
		}
		if _, err := w.w.Write(hdr[:]); err != nil {
			return err
		}
		sz := w.compressed.Len()
		if _, err := w.compressed.WriteTo(w.w); err != nil {
			return err
		}
		w.coffset += uint64(frameHeaderSize + sz)
	}
	return nil
}

// VOffset returns a virtual offset: the high bits count bytes already
// flushed to the underlying writer, the low 16 bits count bytes buffered
// in the current, not-yet-flushed block. Grounded on the teacher's
// bgzf.Writer.VOffset, which gives bgzf's block/within-block addressing
// scheme the same shape.
func (w *Writer) VOffset() uint64 {
	return w.coffset<<16 | uint64(w.original.Len())
}
