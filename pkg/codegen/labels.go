package codegen

import "fmt"

// Labeller hands out label names that are unique within one compilation.
// Every name carries a purpose tag and a counter value that is never reused.
type Labeller struct {
	counter int
}

func NewLabeller() *Labeller {
	return &Labeller{}
}

// New returns a fresh label for purpose, e.g. "-string-4-".
func (l *Labeller) New(purpose string) string {
	l.counter++
	return fmt.Sprintf("-%s-%d-", purpose, l.counter)
}

// Group reserves one counter value for a set of related labels, such as the
// true, false and join labels of a comparison.
func (l *Labeller) Group(purpose string) LabelGroup {
	l.counter++
	return LabelGroup{prefix: fmt.Sprintf("-%s-%d-", purpose, l.counter)}
}

// LabelGroup names the labels of one construct.
type LabelGroup struct {
	prefix string
}

// Label returns the group's label for part, e.g. "-compare-7-true".
func (g LabelGroup) Label(part string) string {
	return g.prefix + part
}
