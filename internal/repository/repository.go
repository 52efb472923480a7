package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/vanshika/bacondistance/internal/domain"
	"github.com/vanshika/bacondistance/internal/graph"
)

// GraphStats counts what the graph database currently holds.
type GraphStats struct {
	Actors        int64
	CoAppearances int64
}

// Repository encapsulates graph persistence operations.
type Repository struct {
	client graph.Client
}

// New instantiates a Repository backed by the supplied graph client.
func New(client graph.Client) *Repository {
	return &Repository{client: client}
}

// EnsureSchema creates the uniqueness constraint MERGE relies on.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.client.ExecuteWrite(ctx, actorConstraintCypher, nil); err != nil {
		return fmt.Errorf("create actor constraint: %w", err)
	}
	return nil
}

// Reset removes every exported actor and its relationships.
func (r *Repository) Reset(ctx context.Context) error {
	if _, err := r.client.ExecuteWrite(ctx, resetCypher, nil); err != nil {
		return fmt.Errorf("reset actors: %w", err)
	}
	return nil
}

// UpsertActors merges one Actor node per name.
func (r *Repository) UpsertActors(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	for _, name := range names {
		if name == "" {
			return errors.New("actor name is required")
		}
	}

	_, err := r.client.ExecuteWrite(ctx, upsertActorsCypher, map[string]any{"names": names})
	if err != nil {
		return fmt.Errorf("upsert %d actors: %w", len(names), err)
	}
	return nil
}

// UpsertCoAppearances merges one CO_APPEARED relationship per edge and sets
// the shared movie count on it. Both endpoints must already exist.
func (r *Repository) UpsertCoAppearances(ctx context.Context, edges []domain.CoAppearance) error {
	if len(edges) == 0 {
		return nil
	}
	rows := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		if e.ActorA == "" || e.ActorB == "" {
			return errors.New("both actors of a co-appearance are required")
		}
		if e.ActorA == e.ActorB {
			return fmt.Errorf("actor %q cannot co-appear with itself", e.ActorA)
		}
		rows = append(rows, map[string]any{
			"a":      e.ActorA,
			"b":      e.ActorB,
			"movies": int64(e.Movies),
		})
	}

	_, err := r.client.ExecuteWrite(ctx, upsertCoAppearancesCypher, map[string]any{"rows": rows})
	if err != nil {
		return fmt.Errorf("upsert %d co-appearances: %w", len(edges), err)
	}
	return nil
}

// ShortestPath asks the database for the shortest CO_APPEARED chain between
// two actors. Found is false when no path exists or either actor is missing.
func (r *Repository) ShortestPath(ctx context.Context, from, to string) (domain.ActorPath, error) {
	if from == "" || to == "" {
		return domain.ActorPath{}, errors.New("source and target actors are required")
	}
	path := domain.ActorPath{From: from, To: to}
	if from == to {
		path.Actors = []string{from}
		path.Found = true
		return path, nil
	}

	res, err := r.client.ExecuteRead(ctx, shortestPathCypher, map[string]any{
		"from": from,
		"to":   to,
	})
	if err != nil {
		return domain.ActorPath{}, fmt.Errorf("shortest path query: %w", err)
	}
	record := res.First()
	if record == nil {
		return path, nil
	}
	if actorsRaw, ok := record["actors"].([]any); ok {
		for _, a := range actorsRaw {
			path.Actors = append(path.Actors, toString(a))
		}
	}
	path.Hops = int(toInt64(record["hops"]))
	path.Found = true
	return path, nil
}

// Stats counts exported actors and co-appearance relationships.
func (r *Repository) Stats(ctx context.Context) (GraphStats, error) {
	res, err := r.client.ExecuteRead(ctx, statsCypher, nil)
	if err != nil {
		return GraphStats{}, fmt.Errorf("graph stats query: %w", err)
	}
	record := res.First()
	if record == nil {
		return GraphStats{}, nil
	}
	return GraphStats{
		Actors:        toInt64(record["actors"]),
		CoAppearances: toInt64(record["coAppearances"]),
	}, nil
}

func toString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func toInt64(val any) int64 {
	switch v := val.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

const actorConstraintCypher = `
CREATE CONSTRAINT actor_name IF NOT EXISTS
FOR (a:Actor) REQUIRE a.name IS UNIQUE
`

const resetCypher = `
MATCH (a:Actor)
DETACH DELETE a
`

const upsertActorsCypher = `
UNWIND $names AS name
MERGE (:Actor {name: name})
`

const upsertCoAppearancesCypher = `
UNWIND $rows AS row
MATCH (a:Actor {name: row.a})
MATCH (b:Actor {name: row.b})
MERGE (a)-[rel:CO_APPEARED]-(b)
SET rel.movies = row.movies
`

const shortestPathCypher = `
MATCH (source:Actor {name: $from}), (target:Actor {name: $to})
MATCH path = shortestPath((source)-[:CO_APPEARED*]-(target))
RETURN [n IN nodes(path) | n.name] AS actors,
length(path) AS hops
`

const statsCypher = `
MATCH (a:Actor)
OPTIONAL MATCH (a)-[rel:CO_APPEARED]-()
RETURN count(DISTINCT a) AS actors, count(DISTINCT rel) AS coAppearances
`
