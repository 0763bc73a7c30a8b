package search

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Keywords is an ordered set of distinct, non-empty search terms.
type Keywords []string

// NewKeywords drops empty strings and repeats, keeping first-occurrence order.
// Callers taking user input reject empty keywords before this point, since
// an empty keyword would otherwise match every readable file.
func NewKeywords(words ...string) Keywords {
	seen := make(map[string]bool, len(words))
	out := make(Keywords, 0, len(words))
	for _, w := range words {
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// PartialResult maps each keyword to the files of one chunk that contain it.
// Every keyword has an entry, possibly empty.
type PartialResult map[string][]string

// NewPartialResult returns a PartialResult with an empty list per keyword.
func NewPartialResult(keywords Keywords) PartialResult {
	pr := make(PartialResult, len(keywords))
	for _, kw := range keywords {
		pr[kw] = []string{}
	}
	return pr
}

// Result is the merged outcome of a run. It keeps keyword order.
type Result struct {
	Keywords Keywords
	Matches  map[string][]string
}

// NewResult returns a Result with an empty, non-nil list for every keyword.
func NewResult(keywords Keywords) *Result {
	r := &Result{
		Keywords: keywords,
		Matches:  make(map[string][]string, len(keywords)),
	}
	for _, kw := range keywords {
		r.Matches[kw] = []string{}
	}
	return r
}

// Get returns the files matching keyword, or nil for an unknown keyword.
func (r *Result) Get(keyword string) []string {
	return r.Matches[keyword]
}

// Each calls fn for every keyword in order.
func (r *Result) Each(fn func(keyword string, paths []string)) {
	for _, kw := range r.Keywords {
		fn(kw, r.Matches[kw])
	}
}

// Total returns the number of (keyword, file) matches.
func (r *Result) Total() int {
	n := 0
	for _, paths := range r.Matches {
		n += len(paths)
	}
	return n
}

// SameMatches reports whether r and other hold the same keywords and, per
// keyword, the same set of files regardless of order.
func (r *Result) SameMatches(other *Result) bool {
	if len(r.Keywords) != len(other.Keywords) {
		return false
	}
	for _, kw := range r.Keywords {
		a, ok := r.Matches[kw]
		b, ok2 := other.Matches[kw]
		if !ok || !ok2 || len(a) != len(b) {
			return false
		}
		as := append([]string(nil), a...)
		bs := append([]string(nil), b...)
		sort.Strings(as)
		sort.Strings(bs)
		for i := range as {
			if as[i] != bs[i] {
				return false
			}
		}
	}
	return true
}

// MarshalJSON encodes the result as an object whose keys follow keyword order.
func (r *Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kw := range r.Keywords {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(kw)
		if err != nil {
			return nil, err
		}
		paths := r.Matches[kw]
		if paths == nil {
			paths = []string{}
		}
		v, err := json.Marshal(paths)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
