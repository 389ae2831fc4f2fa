package vectorstore

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"notechat/internal/contextutil"
	"notechat/internal/storage"
)

// folderKey is the payload field holding the chunk's folder name.
const folderKey = "folder"

// QdrantIndex implements storage.VectorIndex on a Qdrant collection.
// Point IDs are chunk IDs and distances are Euclidean, so results compare
// directly with the sqlite-vec index.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	dimensions int
}

var _ storage.VectorIndex = (*QdrantIndex)(nil)

// NewQdrantIndex creates a new Qdrant index client.
// urlStr should be in the format "http://host:port" (e.g., "http://localhost:6333").
// The gRPC port (typically 6334) will be derived from the HTTP port.
func NewQdrantIndex(urlStr, apiKey, collection string, dimensions int) (*QdrantIndex, error) {
	host, port, err := grpcAddress(urlStr)
	if err != nil {
		return nil, err
	}
	if collection == "" {
		return nil, fmt.Errorf("qdrant collection name is required")
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("vector dimensions must be greater than 0")
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &QdrantIndex{
		client:     client,
		collection: collection,
		dimensions: dimensions,
	}, nil
}

// grpcAddress derives the gRPC host and port from the Qdrant HTTP URL.
func grpcAddress(urlStr string) (string, int, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := 6334 // Default gRPC port
	if parsedURL.Port() != "" {
		httpPort, err := strconv.Atoi(parsedURL.Port())
		if err == nil {
			// gRPC port is typically HTTP port + 1
			port = httpPort + 1
		}
	}
	return host, port, nil
}

// Close closes the underlying gRPC connection.
func (ix *QdrantIndex) Close() error {
	return ix.client.Close()
}

// Put upserts the chunk vector. tx is ignored: Qdrant writes are not part of
// the SQLite transaction. SaveChunk removes the point again when the commit
// fails, and FindNearest skips any point whose chunk row is missing.
func (ix *QdrantIndex) Put(ctx context.Context, _ *sql.Tx, chunkID int64, folderName string, vec []float32) error {
	if len(vec) != ix.dimensions {
		return fmt.Errorf("vector has size %d, collection expects %d", len(vec), ix.dimensions)
	}

	wait := true
	_, err := ix.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: ix.collection,
		Wait:           &wait,
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewIDNum(uint64(chunkID)),
			Vectors: qdrant.NewVectors(vec...),
			Payload: qdrant.NewValueMap(map[string]any{folderKey: folderName}),
		}},
	})
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to upsert point", "collection", ix.collection, "chunk_id", chunkID, "error", err)
		return fmt.Errorf("failed to upsert point: %w", err)
	}
	return nil
}

// Remove deletes points by chunk ID.
func (ix *QdrantIndex) Remove(ctx context.Context, chunkIDs ...int64) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(chunkIDs) == 0 {
		return nil
	}

	ids := make([]*qdrant.PointId, 0, len(chunkIDs))
	for _, id := range chunkIDs {
		ids = append(ids, qdrant.NewIDNum(uint64(id)))
	}

	_, err := ix.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: ix.collection,
		Points:         qdrant.NewPointsSelector(ids...),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to delete points", "collection", ix.collection, "count", len(ids), "error", err)
		return fmt.Errorf("failed to delete points: %w", err)
	}

	logger.DebugContext(ctx, "deleted points", "collection", ix.collection, "count", len(ids))
	return nil
}

// Search returns up to k nearest points, optionally restricted to one folder.
func (ix *QdrantIndex) Search(ctx context.Context, vec []float32, k int, folder string) ([]storage.Hit, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	limit := uint64(k)
	queryReq := &qdrant.QueryPoints{
		CollectionName: ix.collection,
		Query:          qdrant.NewQuery(vec...),
		Limit:          &limit,
		Filter:         folderFilter(folder),
	}

	scoredPoints, err := ix.client.Query(ctx, queryReq)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search points", "collection", ix.collection, "k", k, "error", err)
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	hits := hitsFromScored(scoredPoints)
	logger.DebugContext(ctx, "search completed", "collection", ix.collection, "k", k, "results", len(hits))
	return hits, nil
}

// Reset drops and recreates the collection.
func (ix *QdrantIndex) Reset(ctx context.Context) error {
	exists, err := ix.client.CollectionExists(ctx, ix.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		if err := ix.client.DeleteCollection(ctx, ix.collection); err != nil {
			return fmt.Errorf("failed to delete collection: %w", err)
		}
	}
	return ix.createCollection(ctx)
}

// EnsureCollection ensures the collection exists with the configured vector size.
// If the collection exists, validates that the vector size matches.
func (ix *QdrantIndex) EnsureCollection(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	exists, err := ix.client.CollectionExists(ctx, ix.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if !exists {
		return ix.createCollection(ctx)
	}

	info, err := ix.Info(ctx)
	if err != nil {
		return err
	}
	if info.VectorSize == 0 {
		return fmt.Errorf("could not determine collection vector size")
	}
	if info.VectorSize != ix.dimensions {
		return fmt.Errorf("collection vector size mismatch: expected %d, got %d", ix.dimensions, info.VectorSize)
	}

	logger.InfoContext(ctx, "collection validated", "collection", ix.collection, "vector_size", ix.dimensions, "points", info.PointsCount)
	return nil
}

func (ix *QdrantIndex) createCollection(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	logger.InfoContext(ctx, "creating collection", "collection", ix.collection, "vector_size", ix.dimensions)
	err := ix.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: ix.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(ix.dimensions),
			Distance: qdrant.Distance_Euclid,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// CollectionInfo contains information about a Qdrant collection.
type CollectionInfo struct {
	VectorSize  int
	PointsCount int
	Status      string
}

// Info returns information about the collection including point count.
func (ix *QdrantIndex) Info(ctx context.Context) (*CollectionInfo, error) {
	info, err := ix.client.GetCollectionInfo(ctx, ix.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection info: %w", err)
	}

	var vectorSize int
	if config := info.Config; config != nil && config.Params != nil {
		if vectorsConfig := config.Params.GetVectorsConfig(); vectorsConfig != nil {
			if params := vectorsConfig.GetParams(); params != nil {
				vectorSize = int(params.Size)
			}
		}
	}

	var pointsCount int
	if info.PointsCount != nil {
		pointsCount = int(*info.PointsCount)
	}

	status := "unknown"
	if info.Status != 0 {
		status = info.Status.String()
	}

	return &CollectionInfo{
		VectorSize:  vectorSize,
		PointsCount: pointsCount,
		Status:      status,
	}, nil
}

// folderFilter restricts a query to one folder; "" means no filter.
func folderFilter(folder string) *qdrant.Filter {
	if folder == "" {
		return nil
	}
	return &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatch(folderKey, folder)},
	}
}

// hitsFromScored converts Qdrant results; points without a numeric ID are skipped.
func hitsFromScored(points []*qdrant.ScoredPoint) []storage.Hit {
	hits := make([]storage.Hit, 0, len(points))
	for _, p := range points {
		if p.GetId() == nil {
			continue
		}
		num, ok := p.GetId().GetPointIdOptions().(*qdrant.PointId_Num)
		if !ok {
			continue
		}
		hits = append(hits, storage.Hit{
			ChunkID:  int64(num.Num),
			Distance: float64(p.GetScore()),
		})
	}
	return hits
}
