package dedup

import (
	"encoding/hex"
	"strings"

	minhashlsh "github.com/ekzhu/minhash-lsh"
)

// minhashSeed fixes the permutation seed so signatures computed in one
// session match signatures restored from a checkpoint of another.
const minhashSeed = 1

// fuzzyIndex is the near-duplicate layer: MinHash signatures over word
// shingles, indexed with LSH so candidate lookup does not scan every
// registered document.
type fuzzyIndex struct {
	threshold   float64
	numPerm     int
	shingleSize int

	lsh        *minhashlsh.MinhashLSH
	signatures map[string][]uint64
}

func newFuzzyIndex(threshold float64, numPerm, shingleSize int) *fuzzyIndex {
	return &fuzzyIndex{
		threshold:   threshold,
		numPerm:     numPerm,
		shingleSize: shingleSize,
		lsh:         minhashlsh.NewMinhashLSH16(numPerm, threshold, 0),
		signatures:  make(map[string][]uint64),
	}
}

// signature computes the document's MinHash signature over k-word
// shingles. Documents shorter than one shingle hash as a single token
// run so tiny pages still get a stable signature.
func (f *fuzzyIndex) signature(content string) []uint64 {
	words := normalizeText(content)
	mh := minhashlsh.NewMinhash(minhashSeed, f.numPerm)

	if len(words) < f.shingleSize {
		mh.Push([]byte(strings.Join(words, " ")))
		return mh.Signature()
	}
	for i := 0; i+f.shingleSize <= len(words); i++ {
		mh.Push([]byte(strings.Join(words[i:i+f.shingleSize], " ")))
	}
	return mh.Signature()
}

// hasNearDuplicate reports whether any registered signature matches sig
// above the threshold. LSH candidates are verified against the stored
// signatures because banding admits false positives.
func (f *fuzzyIndex) hasNearDuplicate(sig []uint64) bool {
	for _, candidate := range f.lsh.Query(sig) {
		key, ok := candidate.(string)
		if !ok {
			continue
		}
		if similarity(sig, f.signatures[key]) >= f.threshold {
			return true
		}
	}
	return false
}

// add registers a signature under key and reindexes.
func (f *fuzzyIndex) add(key string, sig []uint64) {
	f.signatures[key] = sig
	f.lsh.Add(key, sig)
	// The index must be rebuilt after each insertion because documents
	// arrive incrementally during the session, not as one batch.
	f.lsh.Index()
}

// similarity estimates Jaccard similarity as the fraction of agreeing
// MinHash positions.
func similarity(a, b []uint64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	equal := 0
	for i := range a {
		if a[i] == b[i] {
			equal++
		}
	}
	return float64(equal) / float64(len(a))
}

// encodeSignature renders a signature as fixed-width hex, 16 characters
// per permutation, for portable checkpoint storage.
func encodeSignature(sig []uint64) string {
	buf := make([]byte, 0, len(sig)*8)
	for _, v := range sig {
		buf = append(buf,
			byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
			byte(v>>24), byte(v>>16), byte(v>>8), byte(v),
		)
	}
	return hex.EncodeToString(buf)
}

// decodeSignature parses encodeSignature's output. Returns false when
// the payload does not decode to exactly numPerm values.
func decodeSignature(s string, numPerm int) ([]uint64, bool) {
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != numPerm*8 {
		return nil, false
	}
	sig := make([]uint64, numPerm)
	for i := range sig {
		for j := 0; j < 8; j++ {
			sig[i] = sig[i]<<8 | uint64(raw[i*8+j])
		}
	}
	return sig, true
}
