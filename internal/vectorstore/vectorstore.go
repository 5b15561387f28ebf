// Package vectorstore adapts an external vector database to the narrow
// contract the indexing engine needs (spec.md §4.6, C6): upsert records
// scoped to a namespace, delete a namespace wholesale, and report stats for
// one. The engine never filters by repository path directly — everything
// routes through the namespace identity.Namespace derives, so one physical
// Qdrant collection can serve many users' workspaces without their vectors
// colliding.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// Record is one chunk's vector plus the metadata the engine needs back out
// of a query (spec.md §3's vector record shape).
type Record struct {
	ID            string
	Namespace     string
	WorkspacePath string
	RelativePath  string
	Ordinal       int
	StartLine     int
	EndLine       int
	Content       string
	ContentHash   string
	Vector        []float32
}

// Stats summarizes one namespace's contents (spec.md §4.7's get_diagnostics).
type Stats struct {
	VectorCount int
}

// Store is the Qdrant-backed implementation of the vector store
// collaborator.
type Store struct {
	client     *qdrant.Client
	collection string
}

// Config is the subset of config.VectorDBConfig the store needs.
type Config struct {
	Host           string
	Port           int
	CollectionName string
	DistanceMetric string
	UseTLS         bool
	Dimensions     int
}

// New connects to Qdrant and returns a Store bound to one collection.
func New(cfg Config) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to vector store: %w", err)
	}

	return &Store{client: client, collection: cfg.CollectionName}, nil
}

// EnsureCollection creates the backing collection if it does not already
// exist, sized for dimensions-dimensional vectors under the configured
// distance metric.
func (s *Store) EnsureCollection(ctx context.Context, dimensions int, distanceMetric string) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(dimensions),
					Distance: distanceOf(distanceMetric),
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// Upsert inserts or overwrites records by id. Re-upserting the same id with
// new content is how the engine handles a changed file: the vector id is a
// deterministic function of (workspace, path, ordinal), so writing it again
// simply replaces the stale vector in place (spec.md invariant 6).
func (s *Store) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(records))
	for i, r := range records {
		payload := map[string]*qdrant.Value{
			"namespace":      qdrant.NewValueString(r.Namespace),
			"workspace_path": qdrant.NewValueString(r.WorkspacePath),
			"relative_path":  qdrant.NewValueString(r.RelativePath),
			"ordinal":        qdrant.NewValueInt(int64(r.Ordinal)),
			"start_line":     qdrant.NewValueInt(int64(r.StartLine)),
			"end_line":       qdrant.NewValueInt(int64(r.EndLine)),
			"content":        qdrant.NewValueString(r.Content),
			"content_hash":   qdrant.NewValueString(r.ContentHash),
		}

		vector := make([]float32, len(r.Vector))
		copy(vector, r.Vector)

		points[i] = &qdrant.PointStruct{
			Id: &qdrant.PointId{
				PointIdOptions: &qdrant.PointId_Uuid{Uuid: r.ID},
			},
			Vectors: &qdrant.Vectors{
				VectorsOptions: &qdrant.Vectors_Vector{
					Vector: &qdrant.Vector{Data: vector},
				},
			},
			Payload: payload,
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %d records: %w", len(records), err)
	}
	return nil
}

// DeleteNamespace removes every record belonging to namespace (spec.md
// §4.6's delete_namespace operation, used by delete_index).
func (s *Store) DeleteNamespace(ctx context.Context, namespace string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points:         &qdrant.PointsSelector{PointsSelectorOneOf: &qdrant.PointsSelector_Filter{Filter: namespaceFilter(namespace)}},
	})
	if err != nil {
		return fmt.Errorf("failed to delete namespace %s: %w", namespace, err)
	}
	return nil
}

// Query returns the topK records in namespace nearest to vector, used by
// get_diagnostics' sample-query check (spec.md §4.7). The engine does not
// use this for ranked retrieval — similarity search is explicitly out of
// scope — only to confirm the namespace is queryable at all.
func (s *Store) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Record, error) {
	if topK <= 0 {
		topK = 1
	}
	limit := uint64(topK)

	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		Filter:         namespaceFilter(namespace),
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query namespace %s: %w", namespace, err)
	}

	records := make([]Record, len(results))
	for i, res := range results {
		payload := res.Payload
		records[i] = Record{
			ID:            res.Id.GetUuid(),
			Namespace:     payload["namespace"].GetStringValue(),
			WorkspacePath: payload["workspace_path"].GetStringValue(),
			RelativePath:  payload["relative_path"].GetStringValue(),
			Ordinal:       int(payload["ordinal"].GetIntegerValue()),
			StartLine:     int(payload["start_line"].GetIntegerValue()),
			EndLine:       int(payload["end_line"].GetIntegerValue()),
			Content:       payload["content"].GetStringValue(),
			ContentHash:   payload["content_hash"].GetStringValue(),
		}
	}
	return records, nil
}

// Stats reports the vector count for namespace.
func (s *Store) Stats(ctx context.Context, namespace string) (Stats, error) {
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Filter:         namespaceFilter(namespace),
	})
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count namespace %s: %w", namespace, err)
	}
	return Stats{VectorCount: int(count)}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func namespaceFilter(namespace string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			{
				ConditionOneOf: &qdrant.Condition_Field{
					Field: &qdrant.FieldCondition{
						Key:   "namespace",
						Match: &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: namespace}},
					},
				},
			},
		},
	}
}

func distanceOf(metric string) qdrant.Distance {
	switch metric {
	case "dot":
		return qdrant.Distance_Dot
	case "euclidean":
		return qdrant.Distance_Euclid
	default:
		return qdrant.Distance_Cosine
	}
}
