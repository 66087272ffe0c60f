// Package vectorindex implements the Vector Index (C2): per-report
// (source_id, chunk, embedding) rows in Qdrant, queried by cosine
// similarity. Grounded on engine/semantic/store.go, adapted
// from a doc-RAG store keyed by doc_id to a report-partitioned store keyed
// by report_id — every row carries a report_id payload field and every
// query filters on it, so reports never see each other's chunks.
package vectorindex

import (
	"context"
	"crypto/sha1"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/finalyze/core/engine/core"
)

const reportIDKey = "report_id"

// Store is the sole owner of Qdrant operations for the report corpus and
// implements core.VectorIndex.
type Store struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
	dims        int
}

// New dials Qdrant at addr and returns a Store bound to collection. Callers
// must call EnsureCollection before the first Insert.
func New(addr, collection string, dims int) (*Store, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("vectorindex: dial qdrant %s: %w", addr, err)
	}
	return &Store{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
		dims:        dims,
	}, nil
}

// NewWithClients builds a Store against already-constructed Qdrant clients,
// bypassing the dial step. Used by tests to inject fakes for pb.PointsClient
// and pb.CollectionsClient.
func NewWithClients(points pb.PointsClient, collections pb.CollectionsClient, collection string, dims int) *Store {
	return &Store{points: points, collections: collections, collection: collection, dims: dims}
}

// Close closes the underlying gRPC connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// EnsureCollection creates the backing collection with a fixed vector size
// if it does not already exist, enforcing embedding dimension uniformity at
// the collection level.
func (s *Store) EnsureCollection(ctx context.Context) error {
	list, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("vectorindex: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == s.collection {
			return nil
		}
	}

	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(s.dims),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("vectorindex: create collection %s: %w", s.collection, err)
	}
	return nil
}

// pointID derives a stable point id from (reportID, sourceID, chunk) so that
// at-least-once redelivery of an IndexChunks message re-upserts the same
// points instead of duplicating them.
func pointID(reportID string, e core.ChunkEmbedding) string {
	h := sha1.Sum([]byte(reportID + "\x00" + e.SourceID + "\x00" + e.Chunk))
	return fmt.Sprintf("%x", h)
}

// Insert implements core.VectorIndex. All rows must share one embedding
// dimension; a mismatch is a fatal invariant violation, not a retryable
// error.
func (s *Store) Insert(ctx context.Context, reportID string, rows []core.ChunkEmbedding) error {
	if len(rows) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, len(rows))
	for i, r := range rows {
		if len(r.Embedding) != s.dims {
			return fmt.Errorf("%w: embedding for source %q has dimension %d, collection expects %d",
				core.ErrInvariantViolation, r.SourceID, len(r.Embedding), s.dims)
		}
		points[i] = &pb.PointStruct{
			Id: &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: pointID(reportID, r)}},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: r.Embedding}},
			},
			Payload: map[string]*pb.Value{
				reportIDKey: {Kind: &pb.Value_StringValue{StringValue: reportID}},
				"source_id": {Kind: &pb.Value_StringValue{StringValue: r.SourceID}},
				"chunk":     {Kind: &pb.Value_StringValue{StringValue: r.Chunk}},
			},
		}
	}

	wait := true
	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("vectorindex: upsert %d points: %w", len(rows), err)
	}
	return nil
}

// Search implements core.VectorIndex: k-NN cosine similarity search scoped
// to reportID, ordered ascending by distance (descending by Qdrant's cosine
// score, which Qdrant itself already returns best-first).
func (s *Store) Search(ctx context.Context, reportID string, query []float32, topK int) ([]core.ChunkEmbedding, error) {
	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: s.collection,
		Vector:         query,
		Limit:          uint64(topK),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
		WithVectors:    &pb.WithVectorsSelector{SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: true}},
		Filter: &pb.Filter{
			Must: []*pb.Condition{fieldMatch(reportIDKey, reportID)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("vectorindex: search: %w", err)
	}

	out := make([]core.ChunkEmbedding, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		payload := r.GetPayload()
		out[i] = core.ChunkEmbedding{
			SourceID:  payload["source_id"].GetStringValue(),
			Chunk:     payload["chunk"].GetStringValue(),
			Embedding: r.GetVectors().GetVector().GetData(),
		}
	}
	return out, nil
}

func fieldMatch(key, value string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key:   key,
				Match: &pb.Match{MatchValue: &pb.Match_Keyword{Keyword: value}},
			},
		},
	}
}
