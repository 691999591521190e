// Package qdrant provides a VectorDB implementation using Qdrant.
package qdrant

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/visionforge/forge-core/internal/domain/entities"
	"github.com/visionforge/forge-core/internal/domain/ports"
	"github.com/visionforge/forge-core/internal/infrastructure/config"
)

// Repository implements the VectorDB interface using Qdrant. It keeps one
// point per registered character, addressed by a UUID derived from the
// character id so re-registering replaces the previous point.
type Repository struct {
	client     pb.CollectionsClient
	points     pb.PointsClient
	collection string
	conn       *grpc.ClientConn
}

// NewRepository creates a new Qdrant repository.
func NewRepository(cfg config.QdrantConfig) (*Repository, error) {
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if cfg.APIKey != "" {
		opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
	}

	conn, err := grpc.NewClient(cfg.Address(), opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	return &Repository{
		client:     pb.NewCollectionsClient(conn),
		points:     pb.NewPointsClient(conn),
		collection: cfg.Collection,
		conn:       conn,
	}, nil
}

// apiKeyInterceptor attaches the Qdrant api-key header to every call.
func apiKeyInterceptor(key string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", key)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// Close closes the gRPC connection.
func (r *Repository) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// EnsureCollection creates the collection if it doesn't exist.
func (r *Repository) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	_, err := r.client.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collection,
	})
	if err == nil {
		return nil
	}

	_, err = r.client.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     vectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}

	return nil
}

// DeleteCollection removes the collection and all its points.
func (r *Repository) DeleteCollection(ctx context.Context) error {
	_, err := r.client.Delete(ctx, &pb.DeleteCollection{
		CollectionName: r.collection,
	})
	if err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return nil
}

// Upsert stores or replaces the reference point for a character.
func (r *Repository) Upsert(ctx context.Context, point entities.ReferencePoint) error {
	_, err := r.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collection,
		Points:         []*pb.PointStruct{pointStruct(point)},
	})
	if err != nil {
		return fmt.Errorf("upserting point: %w", err)
	}

	return nil
}

// UpsertBatch stores many reference points in one round trip.
func (r *Repository) UpsertBatch(ctx context.Context, points []entities.ReferencePoint) error {
	if len(points) == 0 {
		return nil
	}

	structs := make([]*pb.PointStruct, 0, len(points))
	for _, point := range points {
		structs = append(structs, pointStruct(point))
	}

	_, err := r.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collection,
		Points:         structs,
	})
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	return nil
}

func pointStruct(point entities.ReferencePoint) *pb.PointStruct {
	return &pb.PointStruct{
		Id: &pb.PointId{
			PointIdOptions: &pb.PointId_Uuid{
				Uuid: pointID(point.CharacterID),
			},
		},
		Vectors: &pb.Vectors{
			VectorsOptions: &pb.Vectors_Vector{
				Vector: &pb.Vector{
					Data: point.Embedding,
				},
			},
		},
		Payload: map[string]*pb.Value{
			"character_id":  {Kind: &pb.Value_StringValue{StringValue: point.CharacterID}},
			"name":          {Kind: &pb.Value_StringValue{StringValue: point.Name}},
			"summary":       {Kind: &pb.Value_StringValue{StringValue: point.Summary}},
			"genre":         {Kind: &pb.Value_StringValue{StringValue: point.Genre}},
			"registered_at": {Kind: &pb.Value_StringValue{StringValue: point.RegisteredAt.Format(time.RFC3339)}},
		},
	}
}

// Search returns the closest reference points to the embedding, best first.
func (r *Repository) Search(ctx context.Context, embedding []float32, limit int) ([]ports.ScoredReference, error) {
	resp, err := r.points.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         embedding,
		Limit:          uint64(limit),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
		WithVectors: &pb.WithVectorsSelector{
			SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: false},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("searching points: %w", err)
	}

	refs := make([]ports.ScoredReference, 0, len(resp.Result))
	for _, scored := range resp.Result {
		refs = append(refs, ports.ScoredReference{
			Point: payloadToPoint(scored.Payload),
			Score: scored.Score,
		})
	}

	return refs, nil
}

// pointID derives a stable Qdrant point id from a character id. Registry
// ids are free-form strings, so they cannot be used as point ids directly.
func pointID(characterID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(characterID)).String()
}

// payloadToPoint converts a Qdrant payload back to a reference point.
func payloadToPoint(payload map[string]*pb.Value) entities.ReferencePoint {
	point := entities.ReferencePoint{
		CharacterID: getStringValue(payload, "character_id"),
		Name:        getStringValue(payload, "name"),
		Summary:     getStringValue(payload, "summary"),
		Genre:       getStringValue(payload, "genre"),
	}
	if at, err := time.Parse(time.RFC3339, getStringValue(payload, "registered_at")); err == nil {
		point.RegisteredAt = at
	}
	return point
}

func getStringValue(payload map[string]*pb.Value, key string) string {
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}
