package domain

import "sort"

// ActorsGraph maps an actor display name to its co-actors and the number of
// movies shared with each of them. The mapping is symmetric.
type ActorsGraph map[string]map[string]int

// Dataset is the artifact handed from the builder to the distance engine.
type Dataset struct {
	// Movie display name -> sorted actor display names.
	MoviesCasts map[string][]string `json:"movies_casts" validate:"required"`
	// Actor display name -> (co-actor display name -> movies shared).
	ActorsGraph ActorsGraph `json:"actors_graph" validate:"required"`
}

// HasActor reports whether name is a node of the co-appearance graph.
func (d *Dataset) HasActor(name string) bool {
	if d == nil {
		return false
	}
	_, ok := d.ActorsGraph[name]
	return ok
}

// Stats summarises the size of a dataset.
type Stats struct {
	Movies int
	Actors int
	Edges  int
}

// Stats counts movies, actors and undirected co-appearance edges.
func (d *Dataset) Stats() Stats {
	if d == nil {
		return Stats{}
	}
	degrees := 0
	for _, coActors := range d.ActorsGraph {
		degrees += len(coActors)
	}
	return Stats{
		Movies: len(d.MoviesCasts),
		Actors: len(d.ActorsGraph),
		Edges:  degrees / 2,
	}
}

// CoAppearance is one undirected edge of the actors graph.
type CoAppearance struct {
	ActorA string
	ActorB string
	Movies int
}

// CoAppearances lists every undirected edge once, ordered by actor names.
func (g ActorsGraph) CoAppearances() []CoAppearance {
	var edges []CoAppearance
	for actor, coActors := range g {
		for coActor, count := range coActors {
			if actor >= coActor {
				continue
			}
			edges = append(edges, CoAppearance{ActorA: actor, ActorB: coActor, Movies: count})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].ActorA != edges[j].ActorA {
			return edges[i].ActorA < edges[j].ActorA
		}
		return edges[i].ActorB < edges[j].ActorB
	})
	return edges
}

// Actors returns the graph's node names in sorted order.
func (g ActorsGraph) Actors() []string {
	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ActorPath is a shortest chain of co-actors between two actors.
type ActorPath struct {
	From   string
	To     string
	Actors []string
	Hops   int
	Found  bool
}
