package streambuf

import (
	"errors"
	"os"

	"github.com/edsrzf/mmap-go"
)

var ErrEmptyFile = errors.New("cannot map an empty file")

// MmapReader exposes a read-only memory mapping through the ReadStream
// protocol. The mapping covers the whole file and is retained until
// Close, so values decoded out of it stay valid for the reader's
// lifetime.
type MmapReader struct {
	f   *os.File
	m   mmap.MMap
	pos int
	eof bool
}

func OpenMmapReader(path string) (*MmapReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if st.Size() == 0 {
		f.Close()
		return nil, ErrEmptyFile
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &MmapReader{f: f, m: m}, nil
}

func (mr *MmapReader) ReadByte() byte {
	if mr.pos >= len(mr.m) {
		mr.eof = true
		return 0
	}
	b := mr.m[mr.pos]
	mr.pos++
	return b
}

func (mr *MmapReader) PastEOF() bool {
	return mr.eof
}

func (mr *MmapReader) Seek(pos int) int {
	mr.pos = pos
	if mr.pos > len(mr.m) {
		mr.eof = true
	}
	return mr.pos
}

func (mr *MmapReader) Len() int {
	return len(mr.m)
}

func (mr *MmapReader) Close() error {
	if err := mr.m.Unmap(); err != nil {
		mr.f.Close()
		return err
	}
	return mr.f.Close()
}
