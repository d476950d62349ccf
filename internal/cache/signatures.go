package cache

import (
	"encoding/json"
	"strings"

	"github.com/panbanda/cpd/pkg/cpd"
)

// signatureVersion is bumped whenever the record layout or lexers change in
// a way that makes old entries wrong.
const signatureVersion = "sig/v1"

// SignatureKey identifies a prepared signature independent of content:
// the file, the lexer that produced the tokens and the ignore set applied.
func SignatureKey(path, lexerName string, ignored []string) string {
	return strings.Join([]string{signatureVersion, lexerName, strings.Join(ignored, ","), path}, "|")
}

// GetSignature returns the cached signature for key if it was built from
// content with the given hash.
func (c *Cache) GetSignature(key, contentHash string) (cpd.Signature, bool) {
	data, ok := c.Get(key, contentHash)
	if !ok {
		return cpd.Signature{}, false
	}
	var sig cpd.Signature
	if err := json.Unmarshal(data, &sig); err != nil {
		return cpd.Signature{}, false
	}
	if len(sig.Data) != sig.Len()*cpd.RecordSize {
		return cpd.Signature{}, false
	}
	return sig, true
}

// SetSignature stores a prepared signature.
func (c *Cache) SetSignature(key, contentHash string, sig cpd.Signature) error {
	if !c.enabled {
		return nil
	}
	data, err := json.Marshal(sig)
	if err != nil {
		return err
	}
	return c.Set(key, contentHash, data)
}
