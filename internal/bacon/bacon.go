// Package bacon answers shortest co-appearance distance queries over a loaded
// dataset using a level-synchronised bidirectional breadth-first search.
package bacon

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/vanshika/bacondistance/internal/domain"
)

const (
	// ReferenceActor is the actor every Bacon distance is measured against.
	ReferenceActor = "Kevin Bacon"
	// Infinity is rendered when no path connects two actors.
	Infinity = "infinity"
)

// ErrActorNotFound matches any ActorNotFoundError via errors.Is.
var ErrActorNotFound = errors.New("actor not found")

// ActorNotFoundError reports a queried actor missing from the graph.
type ActorNotFoundError struct {
	Name string
}

func (e *ActorNotFoundError) Error() string {
	return fmt.Sprintf("Actor '%s' wasn't found!", e.Name)
}

// Is lets errors.Is(err, ErrActorNotFound) succeed.
func (e *ActorNotFoundError) Is(target error) bool {
	return target == ErrActorNotFound
}

// Engine computes distances to a fixed reference actor.
type Engine struct {
	reference string
}

// NewEngine returns an Engine measuring against reference, or ReferenceActor
// when reference is empty.
func NewEngine(reference string) Engine {
	if reference == "" {
		reference = ReferenceActor
	}
	return Engine{reference: reference}
}

// Reference returns the configured reference actor.
func (e Engine) Reference() string {
	if e.reference == "" {
		return ReferenceActor
	}
	return e.reference
}

// DistanceToReference renders the distance between name and the engine's
// reference actor. It fails with ActorNotFoundError when name is not a node
// of the graph and returns Infinity when the two are not connected.
func (e Engine) DistanceToReference(name string, ds *domain.Dataset) (string, error) {
	if !ds.HasActor(name) {
		return "", &ActorNotFoundError{Name: name}
	}
	hops, ok := Distance(name, e.Reference(), ds)
	return Format(hops, ok), nil
}

// DistanceToReference measures name against ReferenceActor.
func DistanceToReference(name string, ds *domain.Dataset) (string, error) {
	return NewEngine(ReferenceActor).DistanceToReference(name, ds)
}

// Format renders a Distance result.
func Format(hops int, ok bool) string {
	if !ok {
		return Infinity
	}
	return strconv.Itoa(hops)
}

// Distance returns the number of co-appearance hops on a shortest path
// between a and b. ok is false when the distance is infinite, which includes
// either actor being absent from the graph. Identical names are at distance
// zero whether or not they are in the graph.
func Distance(a, b string, ds *domain.Dataset) (hops int, ok bool) {
	if a == b {
		return 0, true
	}
	if !ds.HasActor(a) || !ds.HasActor(b) {
		return 0, false
	}
	return bidirectional(ds.ActorsGraph, a, b)
}
