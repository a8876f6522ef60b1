package failure

import "strings"

// Aggregate groups the warnings of a run that kept working past them.
type Aggregate struct {
	errlist []error
}

// NewAggregate returns an Aggregate containing the given list of errors, or
// nil when the list is empty.
func NewAggregate(errlist []error) *Aggregate {
	if len(errlist) == 0 {
		return nil
	}
	return &Aggregate{errlist}
}

// Error returns the combined error message for the Aggregate.
func (a *Aggregate) Error() string {
	msg := new(strings.Builder)
	for i, err := range a.errlist {
		if i > 0 {
			msg.WriteString("; ")
		}
		msg.WriteString(err.Error())
	}
	return msg.String()
}

// Errors returns the individual errors which make up the aggregate.
func (a *Aggregate) Errors() []error {
	return a.errlist
}

// CountByKind tallies the aggregated errors per kind
func (a *Aggregate) CountByKind() map[Kind]int {
	counts := make(map[Kind]int)
	if a == nil {
		return counts
	}
	for _, err := range a.errlist {
		counts[KindOf(err)]++
	}
	return counts
}
