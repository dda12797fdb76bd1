package streambuf

import (
	"hash"
	"hash/adler32"
)

// The row format checksums each column group with a rolling Adler-32
// (initial state 1, which is what adler32.New starts from). These two
// wrappers tee every byte that crosses them into the running state;
// one wrapper instance is scoped to exactly one checksummed region.

// ReadWithAdler wraps a ReadStream and hashes every byte read.
type ReadWithAdler struct {
	inner ReadStream
	h     hash.Hash32
}

func NewReadWithAdler(inner ReadStream) *ReadWithAdler {
	return &ReadWithAdler{inner: inner, h: adler32.New()}
}

func (ra *ReadWithAdler) ReadByte() byte {
	b := ra.inner.ReadByte()
	ra.h.Write([]byte{b})
	return b
}

func (ra *ReadWithAdler) PastEOF() bool {
	return ra.inner.PastEOF()
}

func (ra *ReadWithAdler) Seek(pos int) int {
	return ra.inner.Seek(pos)
}

func (ra *ReadWithAdler) Hash() uint32 {
	return ra.h.Sum32()
}

// AppendWithAdler wraps an AppendStream and hashes every byte written.
type AppendWithAdler struct {
	inner AppendStream
	h     hash.Hash32
}

func NewAppendWithAdler(inner AppendStream) *AppendWithAdler {
	return &AppendWithAdler{inner: inner, h: adler32.New()}
}

func (aa *AppendWithAdler) WriteByte(b byte) {
	aa.inner.WriteByte(b)
	aa.h.Write([]byte{b})
}

func (aa *AppendWithAdler) Flush() bool {
	return aa.inner.Flush()
}

func (aa *AppendWithAdler) Hash() uint32 {
	return aa.h.Sum32()
}
