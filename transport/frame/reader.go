package frame

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"io/ioutil"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/flate"
)

// DecompressFactory creates a decompressor reading from r, the mirror
// image of CompressFactory.
type DecompressFactory interface {
	New(r io.Reader) (io.Reader, error)
}

// NewReader returns a snappy stream decompressor over r; it has the shape
// NewReader (the package function) takes as its newDecoder argument.
func (SnappyFactory) NewReader(r io.Reader) (io.Reader, error) {
	return snappy.NewReader(r), nil
}

// NewReader returns a flate decompressor over r; it has the shape NewReader
// (the package function) takes as its newDecoder argument.
func (FlateFactory) NewReader(r io.Reader) (io.Reader, error) {
	return flate.NewReader(r), nil
}

// Reader reads the block stream a Writer produced, yielding one
// uncompressed block at a time.
type Reader struct {
	r       io.Reader
	newDec  func(io.Reader) (io.Reader, error)
	coffset uint64
}

// NewReader returns a Reader over r, decompressing blocks with newDecoder
// (typically a factory's NewReader method).
func NewReader(r io.Reader, newDecoder func(io.Reader) (io.Reader, error)) *Reader {
	return &Reader{r: r, newDec: newDecoder}
}

// ReadBlock reads and decompresses the next block, returning io.EOF once
// the stream is exhausted cleanly (between blocks, not mid-block).
func (r *Reader) ReadBlock() ([]byte, error) {
	var hdr [frameHeaderSize]byte
	if _, err := io.ReadFull(r.r, hdr[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("frame: truncated block header")
		}
		return nil, err
	}
	compressedLen := binary.LittleEndian.Uint32(hdr[0:4])
	uncompressedLen := binary.LittleEndian.Uint32(hdr[4:8])

	compressed := make([]byte, compressedLen)
	if _, err := io.ReadFull(r.r, compressed); err != nil {
		return nil, fmt.Errorf("frame: truncated block body: %w", err)
	}

	dec, err := r.newDec(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	out, err := ioutil.ReadAll(dec)
	if err != nil {
		return nil, err
	}
	if uint32(len(out)) != uncompressedLen {
		return nil, fmt.Errorf("frame: block declared %d uncompressed bytes, got %d", uncompressedLen, len(out))
	}
	r.coffset += uint64(frameHeaderSize + int(compressedLen))
	return out, nil
}

// VOffset mirrors Writer.VOffset for the read side: the high bits count
// the stream bytes (headers plus compressed bodies) of fully consumed
// blocks, the low 16 bits are always zero since ReadBlock only returns
// whole blocks.
func (r *Reader) VOffset() uint64 {
	return r.coffset << 16
}
