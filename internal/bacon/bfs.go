package bacon

import (
	"fmt"

	"github.com/vanshika/bacondistance/internal/domain"
)

// frontier is one side of the bidirectional search. queue holds exactly the
// nodes of the current level; dist records every node this side has reached.
type frontier struct {
	queue []string
	dist  map[string]int
}

func newFrontier(root string) *frontier {
	return &frontier{
		queue: []string{root},
		dist:  map[string]int{root: 0},
	}
}

// bidirectional alternates full-level expansions from a and b and stops at the
// first node reached by both sides. Because each side finishes a whole level
// before the other moves, that first meeting lies on a shortest path.
func bidirectional(graph domain.ActorsGraph, a, b string) (int, bool) {
	fa := newFrontier(a)
	fb := newFrontier(b)

	for len(fa.queue) > 0 && len(fb.queue) > 0 {
		if hops, met := expand(graph, fa, fb); met {
			return hops, true
		}
		if len(fa.queue) == 0 {
			break
		}
		if hops, met := expand(graph, fb, fa); met {
			return hops, true
		}
	}
	return 0, false
}

// expand consumes the current level of f. It returns the path length as soon
// as a neighbour already reached by other is found.
func expand(graph domain.ActorsGraph, f, other *frontier) (int, bool) {
	level := f.queue
	var next []string

	for _, node := range level {
		coActors, ok := graph[node]
		if !ok {
			panic(fmt.Sprintf("bacon: actor %q reached but missing from the graph", node))
		}
		d := f.dist[node]
		for coActor := range coActors {
			if _, seen := f.dist[coActor]; seen {
				continue
			}
			if od, seen := other.dist[coActor]; seen {
				return d + od + 1, true
			}
			f.dist[coActor] = d + 1
			next = append(next, coActor)
		}
	}

	f.queue = next
	return 0, false
}
