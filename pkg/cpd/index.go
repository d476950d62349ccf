package cpd

// Occurrence is where a window hash was first seen.
type Occurrence struct {
	File  string
	Line  int
	Token int
}

// Index maps window hashes to their first occurrence within one detection
// run. It is owned by a single run and never shared.
type Index struct {
	entries map[WindowHash]Occurrence
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{entries: make(map[WindowHash]Occurrence)}
}

// Lookup returns the first occurrence of h.
func (x *Index) Lookup(h WindowHash) (Occurrence, bool) {
	occ, ok := x.entries[h]
	return occ, ok
}

// Insert records occ for h unless h is already present. It reports whether
// the entry was added.
func (x *Index) Insert(h WindowHash, occ Occurrence) bool {
	if _, ok := x.entries[h]; ok {
		return false
	}
	x.entries[h] = occ
	return true
}

// Len returns the number of distinct hashes recorded.
func (x *Index) Len() int {
	return len(x.entries)
}
