package cpd

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/panbanda/cpd/pkg/token"
)

// RecordSize is the width of one signature record: a kind byte followed by
// a big-endian CRC-32 of the token text.
const RecordSize = 5

// Signature is the flat fingerprint buffer of one file's significant tokens
// together with the start line of every token.
type Signature struct {
	File  string `json:"file"`
	Data  []byte `json:"data"`
	Lines []int  `json:"lines"`
}

// BuildSignature appends one record per token in token order.
func BuildSignature(f Filtered) Signature {
	sig := Signature{
		File:  f.File,
		Data:  make([]byte, 0, len(f.Tokens)*RecordSize),
		Lines: make([]int, len(f.Tokens)),
	}
	for i, tok := range f.Tokens {
		sig.Data = appendRecord(sig.Data, tok)
		sig.Lines[i] = tok.Line
	}
	return sig
}

func appendRecord(dst []byte, tok token.Token) []byte {
	dst = append(dst, byte(tok.Kind))
	return binary.BigEndian.AppendUint32(dst, crc32.ChecksumIEEE([]byte(tok.Text)))
}

// Len returns the number of tokens in the signature.
func (s Signature) Len() int {
	return len(s.Lines)
}

// Record returns the record of token i.
func (s Signature) Record(i int) []byte {
	return s.Data[i*RecordSize : (i+1)*RecordSize]
}

// Window returns the records of the w tokens starting at token i.
func (s Signature) Window(i, w int) []byte {
	return s.Data[i*RecordSize : (i+w)*RecordSize]
}

// NumWindows returns how many windows of w tokens the signature holds.
func (s Signature) NumWindows(w int) int {
	if w <= 0 || s.Len() < w {
		return 0
	}
	return s.Len() - w + 1
}
