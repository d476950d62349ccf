package cpd

import "iter"

// DuplicateRecord is one maximal run of matching tokens. Side A is always
// the first occurrence seen during the run.
type DuplicateRecord struct {
	FileA      string `json:"file_a" toon:"file_a" yaml:"file_a"`
	FirstLineA int    `json:"first_line_a" toon:"first_line_a" yaml:"first_line_a"`
	FileB      string `json:"file_b" toon:"file_b" yaml:"file_b"`
	FirstLineB int    `json:"first_line_b" toon:"first_line_b" yaml:"first_line_b"`
	NumLines   int    `json:"num_lines" toon:"num_lines" yaml:"num_lines"`
	NumTokens  int    `json:"num_tokens" toon:"num_tokens" yaml:"num_tokens"`
}

// LastLineA returns the last line of side A covered by the run. Side A
// has no line count of its own, so this reuses NumLines from side B; when
// the two copies are laid out differently the value is approximate.
func (r DuplicateRecord) LastLineA() int {
	return r.FirstLineA + r.NumLines - 1
}

// LastLineB returns the line on side B where the run's last matching
// window starts.
func (r DuplicateRecord) LastLineB() int {
	return r.FirstLineB + r.NumLines - 1
}

// SameFile reports whether both sides are in one file.
func (r DuplicateRecord) SameFile() bool {
	return r.FileA == r.FileB
}

// Result is the ordered outcome of one detection run. Records are in
// detection order: file processing order, then token order.
type Result struct {
	records []DuplicateRecord

	MinLines      int    `json:"min_lines"`
	MinMatches    int    `json:"min_matches"`
	Hash          string `json:"hash"`
	FilesScanned  int    `json:"files_scanned"`
	FilesTooShort int    `json:"files_too_short"`
	Tokens        int    `json:"tokens"`
	Windows       int    `json:"windows"`
	IndexSize     int    `json:"index_size"`
}

func (r *Result) add(rec DuplicateRecord) {
	r.records = append(r.records, rec)
}

// Len returns the number of records.
func (r *Result) Len() int {
	return len(r.records)
}

// At returns record i.
func (r *Result) At(i int) DuplicateRecord {
	return r.records[i]
}

// Records returns a copy of the records.
func (r *Result) Records() []DuplicateRecord {
	out := make([]DuplicateRecord, len(r.records))
	copy(out, r.records)
	return out
}

// All iterates over the records in detection order.
func (r *Result) All() iter.Seq2[int, DuplicateRecord] {
	return func(yield func(int, DuplicateRecord) bool) {
		for i, rec := range r.records {
			if !yield(i, rec) {
				return
			}
		}
	}
}
