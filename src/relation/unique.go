package relation

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/sha3"

	"github.com/flatrel/flatrel/src/column"
)

// table size for the open-addressing fingerprint set; a prime, so
// linear probing spreads reasonably even for clustered digests
const fingerprintTableSize = 1_213_757

// fingerprint is the first 16 bytes of a Shake128 digest, read as two
// little-endian words. The zero fingerprint doubles as the empty slot
// marker - a real row digesting to all zeroes would never be seen as a
// duplicate, which we accept at 2^-128 odds.
type fingerprint struct {
	lo, hi uint64
}

func (fp fingerprint) zero() bool {
	return fp.lo == 0 && fp.hi == 0
}

// UniqueRelation filters out rows whose projection onto a column
// subset has been seen before. Rows come out in input order, first
// occurrence wins.
type UniqueRelation struct {
	relation Relation
	columns  []int
	table    []fingerprint
}

// NewUnique builds the dedup over the named columns; an empty list
// means the whole row. The flat probe table is allocated up front
// (about 19 MB) - dedup is assumed to run over large inputs.
func NewUnique(rel Relation, cols []string) (*UniqueRelation, error) {
	var columns []int
	if len(cols) == 0 {
		for i := 0; i < rel.Length(); i++ {
			columns = append(columns, i)
		}
	} else {
		columns = make([]int, len(cols))
		for j, name := range cols {
			found := false
			for i := 0; i < rel.Length(); i++ {
				if rel.Name(i) == name {
					columns[j] = i
					found = true
					break
				}
			}
			if !found {
				return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
			}
		}
	}
	return &UniqueRelation{
		relation: rel,
		columns:  columns,
		table:    make([]fingerprint, fingerprintTableSize),
	}, nil
}

func (ur *UniqueRelation) fingerprintRow() fingerprint {
	h := sha3.NewShake128()
	var scratch [8]byte
	for _, k := range ur.columns {
		v := ur.relation.Value(k)
		switch v.Kind() {
		case column.KindU32:
			binary.LittleEndian.PutUint32(scratch[:4], v.AsU32())
			h.Write(scratch[:4])
		case column.KindU64:
			binary.LittleEndian.PutUint64(scratch[:], v.AsU64())
			h.Write(scratch[:])
		case column.KindString:
			h.Write([]byte(v.AsString()))
		case column.KindNull:
			h.Write([]byte{0})
		}
		// column delimiter, so ("ab","c") and ("a","bc") differ
		h.Write([]byte{0})
	}
	var digest [16]byte
	h.Read(digest[:])
	return fingerprint{
		lo: binary.LittleEndian.Uint64(digest[:8]),
		hi: binary.LittleEndian.Uint64(digest[8:]),
	}
}

// insert probes linearly from lo mod table size; it reports whether
// the fingerprint was new.
func (ur *UniqueRelation) insert(fp fingerprint) bool {
	idx := fp.lo % uint64(len(ur.table))
	for {
		slot := ur.table[idx]
		if slot.zero() {
			ur.table[idx] = fp
			return true
		}
		if slot == fp {
			return false
		}
		idx++
		if idx == uint64(len(ur.table)) {
			idx = 0
		}
	}
}

func (ur *UniqueRelation) Length() int {
	return ur.relation.Length()
}

func (ur *UniqueRelation) Read() bool {
	for ur.relation.Read() {
		if ur.insert(ur.fingerprintRow()) {
			return true
		}
	}
	return false
}

func (ur *UniqueRelation) Name(i int) string {
	return ur.relation.Name(i)
}

func (ur *UniqueRelation) Ctype(i int) column.Type {
	return ur.relation.Ctype(i)
}

func (ur *UniqueRelation) Nullable(i int) bool {
	return ur.relation.Nullable(i)
}

func (ur *UniqueRelation) Value(i int) column.Value {
	return ur.relation.Value(i)
}

func (ur *UniqueRelation) Close() error {
	return ur.relation.Close()
}
