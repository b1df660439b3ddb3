// Package specification implements the specification pattern: composable
// predicates over candidates, optionally carrying an ordering and a maximum
// number of results.
package specification

import (
	"cmp"
	"slices"
)

// Specification decides whether a candidate satisfies a business rule.
type Specification[T any] interface {
	IsSatisfiedBy(candidate T) bool
}

// Predicate adapts a plain function to a Specification.
type Predicate[T any] func(candidate T) bool

// IsSatisfiedBy implements Specification.
func (p Predicate[T]) IsSatisfiedBy(candidate T) bool {
	return p(candidate)
}

// All returns a specification every candidate satisfies.
func All[T any]() Specification[T] {
	return Predicate[T](func(T) bool { return true })
}

// None returns a specification no candidate satisfies.
func None[T any]() Specification[T] {
	return Predicate[T](func(T) bool { return false })
}

type andSpec[T any] struct{ specs []Specification[T] }

func (s andSpec[T]) IsSatisfiedBy(candidate T) bool {
	for _, spec := range s.specs {
		if !satisfies(spec, candidate) {
			return false
		}
	}
	return true
}

type orSpec[T any] struct{ specs []Specification[T] }

func (s orSpec[T]) IsSatisfiedBy(candidate T) bool {
	for _, spec := range s.specs {
		if satisfies(spec, candidate) {
			return true
		}
	}
	return false
}

type notSpec[T any] struct{ spec Specification[T] }

func (s notSpec[T]) IsSatisfiedBy(candidate T) bool {
	return !satisfies(s.spec, candidate)
}

// And is satisfied when all specs are. An empty And is satisfied by everything.
func And[T any](specs ...Specification[T]) Specification[T] {
	return andSpec[T]{specs: specs}
}

// Or is satisfied when at least one of specs is. An empty Or is never satisfied.
func Or[T any](specs ...Specification[T]) Specification[T] {
	return orSpec[T]{specs: specs}
}

// Not inverts spec.
func Not[T any](spec Specification[T]) Specification[T] {
	return notSpec[T]{spec: spec}
}

// satisfies treats a nil specification as All.
func satisfies[T any](spec Specification[T], candidate T) bool {
	if spec == nil {
		return true
	}
	return spec.IsSatisfiedBy(candidate)
}

type sortRule[T any] struct {
	compare    func(a, b T) int
	descending bool
}

// Query wraps a specification with an ordering and a maximum number of results.
// A Query is itself a Specification so it can be passed wherever one is accepted.
type Query[T any] struct {
	spec  Specification[T]
	rules []sortRule[T]
	limit int
}

// NewQuery creates a query over spec. A nil spec matches everything.
func NewQuery[T any](spec Specification[T]) *Query[T] {
	return &Query[T]{spec: spec}
}

// IsSatisfiedBy implements Specification.
func (q *Query[T]) IsSatisfiedBy(candidate T) bool {
	if q == nil {
		return true
	}
	return satisfies(q.spec, candidate)
}

// OrderBy appends an ascending sort key. Keys are applied in the order added.
func (q *Query[T]) OrderBy(compare func(a, b T) int) *Query[T] {
	q.rules = append(q.rules, sortRule[T]{compare: compare})
	return q
}

// OrderByDescending appends a descending sort key.
func (q *Query[T]) OrderByDescending(compare func(a, b T) int) *Query[T] {
	q.rules = append(q.rules, sortRule[T]{compare: compare, descending: true})
	return q
}

// Take limits the number of results. Zero or less means unlimited.
func (q *Query[T]) Take(n int) *Query[T] {
	q.limit = n
	return q
}

// Limit returns the maximum number of results, zero when unlimited.
func (q *Query[T]) Limit() int {
	if q == nil {
		return 0
	}
	return q.limit
}

// Apply filters items, sorts the matches stably and truncates them to the limit.
// items is left untouched. A nil query selects everything.
func (q *Query[T]) Apply(items []T) []T {
	if q == nil {
		return filter[T](items, nil)
	}
	out := filter(items, q.spec)
	if len(q.rules) > 0 {
		slices.SortStableFunc(out, func(a, b T) int {
			for _, r := range q.rules {
				c := r.compare(a, b)
				if r.descending {
					c = -c
				}
				if c != 0 {
					return c
				}
			}
			return 0
		})
	}
	if q.limit > 0 && len(out) > q.limit {
		out = out[:q.limit]
	}
	return out
}

// Select returns the items satisfying spec. When spec is a *Query its ordering
// and limit are honoured as well. A nil spec, typed or not, selects everything.
func Select[T any](items []T, spec Specification[T]) []T {
	if q, ok := spec.(*Query[T]); ok {
		return q.Apply(items)
	}
	return filter(items, spec)
}

func filter[T any](items []T, spec Specification[T]) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if satisfies(spec, item) {
			out = append(out, item)
		}
	}
	return out
}

// By builds a comparison function from a key selector, for use with OrderBy.
func By[T any, K cmp.Ordered](key func(T) K) func(a, b T) int {
	return func(a, b T) int {
		return cmp.Compare(key(a), key(b))
	}
}
