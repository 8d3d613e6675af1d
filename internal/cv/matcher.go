package cv

import "iter"

// Match matches every template against the frame and yields exactly one
// MatchResult per template, in template order. The sequence is lazy and
// finite, and because it depends only on its inputs it can be restarted or
// re-ranged any number of times with identical results.
func Match(frame *Frame, templates []Template, config *MatchConfig) iter.Seq[MatchResult] {
	return func(yield func(MatchResult) bool) {
		for _, tpl := range templates {
			if !yield(FindTemplate(frame.Image, tpl, config)) {
				return
			}
		}
	}
}

// MatchAll collects the full match sequence into a slice, one entry per
// template in template order.
func MatchAll(frame *Frame, templates []Template, config *MatchConfig) []MatchResult {
	results := make([]MatchResult, 0, len(templates))
	for result := range Match(frame, templates, config) {
		results = append(results, result)
	}
	return results
}
