package models

// Transitions is the allowed-edges table of a status field. A status value
// with no entry is terminal.
type Transitions[S ~string] map[S][]S

func (t Transitions[S]) Can(from, to S) bool {
	for _, next := range t[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (t Transitions[S]) Terminal(s S) bool { return len(t[s]) == 0 }

// Valid reports whether s appears in the table at all, as a source or a
// target.
func (t Transitions[S]) Valid(s S) bool {
	if _, ok := t[s]; ok {
		return true
	}
	for _, targets := range t {
		for _, next := range targets {
			if next == s {
				return true
			}
		}
	}
	return false
}
