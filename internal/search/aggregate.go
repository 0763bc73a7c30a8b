package search

// Merge appends each partial's per-keyword list in the order given.
func Merge(keywords Keywords, partials ...PartialResult) *Result {
	r := NewResult(keywords)
	for _, p := range partials {
		for _, kw := range keywords {
			r.Matches[kw] = append(r.Matches[kw], p[kw]...)
		}
	}
	return r
}

// Aggregator drains partial results from a collection channel.
type Aggregator struct {
	keywords  Keywords
	onPartial func(received, expected int)
}

// NewAggregator creates an Aggregator for keywords. onPartial, if set, is
// called after each receive.
func NewAggregator(keywords Keywords, onPartial func(received, expected int)) *Aggregator {
	return &Aggregator{keywords: keywords, onPartial: onPartial}
}

// Collect receives exactly expected partials from in and merges them in
// arrival order. expected must equal the number of units that started.
func (a *Aggregator) Collect(in <-chan PartialResult, expected int) *Result {
	partials := make([]PartialResult, 0, expected)
	for i := 0; i < expected; i++ {
		partials = append(partials, <-in)
		if a.onPartial != nil {
			a.onPartial(i+1, expected)
		}
	}
	return Merge(a.keywords, partials...)
}
