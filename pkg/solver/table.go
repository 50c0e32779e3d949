package solver

import "tsume/pkg/shogi"

const (
	bucketEntries = 4
	entryBytes    = 32
	bucketBytes   = bucketEntries * entryBytes

	defaultMemoryMB = 16
)

// entry is one proof-number record. It is exactly entryBytes long so the
// memory budget maps directly to a bucket count.
type entry struct {
	key    uint64
	pn     uint32
	dn     uint32
	best   shogi.Move
	amount uint32
	dist   uint16
	// ply is the search ply a depth-limited disproof was computed at.
	ply     uint16
	limited bool
	_       [3]byte
}

type bucket [bucketEntries]entry

// table is a fixed-capacity transposition table. It never grows after
// construction.
type table struct {
	buckets []bucket
	mask    uint64
}

func newTable(memoryMB int) *table {
	if memoryMB <= 0 {
		memoryMB = defaultMemoryMB
	}
	limit := uint64(memoryMB) << 20 / bucketBytes
	n := uint64(1)
	for n*2 <= limit {
		n *= 2
	}
	return &table{buckets: make([]bucket, n), mask: n - 1}
}

// capacity is the number of entries the table can hold.
func (t *table) capacity() int {
	return len(t.buckets) * bucketEntries
}

func (t *table) bytes() int {
	return len(t.buckets) * bucketBytes
}

func (t *table) clear() {
	clear(t.buckets)
}

func (t *table) lookup(key uint64) *entry {
	b := &t.buckets[key&t.mask]
	for i := range b {
		if b[i].amount != 0 && b[i].key == key {
			return &b[i]
		}
	}
	return nil
}

// store writes e into its bucket. An entry with the same key is replaced,
// then an empty slot is used, then the slot with the least work is evicted.
func (t *table) store(e entry) {
	if e.amount == 0 {
		e.amount = 1
	}
	b := &t.buckets[e.key&t.mask]
	victim := -1
	for i := range b {
		if b[i].amount != 0 && b[i].key == e.key {
			b[i] = e
			return
		}
		if b[i].amount == 0 {
			if victim < 0 || b[victim].amount != 0 {
				victim = i
			}
			continue
		}
		if victim < 0 || (b[victim].amount != 0 && b[i].amount < b[victim].amount) {
			victim = i
		}
	}
	b[victim] = e
}

func (t *table) remove(key uint64) {
	if e := t.lookup(key); e != nil {
		*e = entry{}
	}
}

// used counts occupied entries.
func (t *table) used() int {
	n := 0
	for i := range t.buckets {
		for j := range t.buckets[i] {
			if t.buckets[i][j].amount != 0 {
				n++
			}
		}
	}
	return n
}
