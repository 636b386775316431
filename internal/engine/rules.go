package engine

// rule pairs a predicate with the outcome it selects.
type rule[In, Out any] struct {
	when func(In) bool
	then Out
}

// firstMatch walks rules top to bottom and returns the first outcome whose
// predicate holds, or otherwise.
func firstMatch[In, Out any](in In, rules []rule[In, Out], otherwise Out) Out {
	for _, r := range rules {
		if r.when(in) {
			return r.then
		}
	}
	return otherwise
}

// atLeast matches scores at or above min.
func atLeast(min int) func(int) bool {
	return func(v int) bool { return v >= min }
}

func below(max float64) func(float64) bool {
	return func(v float64) bool { return v < max }
}
