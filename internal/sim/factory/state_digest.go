package factory

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

type hashWriter interface {
	Write(p []byte) (n int, err error)
}

// stateDigest hashes everything that influences future ticks. Editor state
// and the clock accumulator are presentation-side and left out.
func (s *Session) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, nowTick)
	digestWriteI64(h, &tmp, int64(s.grid.Width()))
	digestWriteI64(h, &tmp, int64(s.grid.Height()))
	h.Write([]byte{boolByte(s.running)})

	// Tiles, row-major.
	for _, t := range s.grid.Tiles() {
		digestWriteI64(h, &tmp, int64(t.Cell.Col))
		digestWriteI64(h, &tmp, int64(t.Cell.Row))
		h.Write([]byte{byte(t.Kind), byte(t.Dir)})
	}

	// Items, insertion order.
	digestWriteU64(h, &tmp, uint64(s.items.Len()))
	for el := s.items.items.Front(); el != nil; el = el.Next() {
		it := el.Value
		digestWriteU64(h, &tmp, uint64(it.ID))
		h.Write([]byte(it.Kind))
		h.Write([]byte{0})
		digestWriteI64(h, &tmp, int64(it.Cell.Col))
		digestWriteI64(h, &tmp, int64(it.Cell.Row))
	}
	digestWriteU64(h, &tmp, uint64(s.items.nextID))

	for _, sp := range s.spawners {
		digestWriteI64(h, &tmp, int64(sp.Cell.Col))
		digestWriteI64(h, &tmp, int64(sp.Cell.Row))
		digestWriteI64(h, &tmp, int64(sp.counter))
	}

	return hex.EncodeToString(h.Sum(nil))
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
