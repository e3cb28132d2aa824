package geoSearch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"droneanalytics/packages/metrics"
	"droneanalytics/packages/parsing/coordinates"
	"droneanalytics/packages/parsing/geoIndex"
)

// Resolver возвращает название региона, содержащего точку, или пустую строку
type Resolver interface {
	Resolve(ctx context.Context, point coordinates.Coordinate) (string, error)
}

// MemoryResolver ищет регион перебором набора: сначала по границам, затем точной
// проверкой вхождения. При перекрытии побеждает регион, загруженный раньше.
type MemoryResolver struct {
	set *geoIndex.Set
}

func NewMemoryResolver(set *geoIndex.Set) *MemoryResolver {
	return &MemoryResolver{set: set}
}

func (m *MemoryResolver) Resolve(_ context.Context, point coordinates.Coordinate) (string, error) {
	pt := orb.Point{point.Lon, point.Lat}
	for _, r := range m.set.Regions() {
		if !r.Bound.Contains(pt) {
			continue
		}
		if contains(r.Geometry, pt) {
			metrics.RegionLookups.WithLabelValues(metrics.OutcomeHit).Inc()
			return r.Name, nil
		}
	}
	metrics.RegionLookups.WithLabelValues(metrics.OutcomeMiss).Inc()
	return "", nil
}

func contains(g orb.Geometry, pt orb.Point) bool {
	switch geom := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(geom, pt)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(geom, pt)
	default:
		return false
	}
}

// MongoResolver использует 2dsphere индекс коллекции регионов
type MongoResolver struct {
	collection *mongo.Collection
	timeout    time.Duration
}

func NewMongoResolver(collection *mongo.Collection, timeout time.Duration) *MongoResolver {
	return &MongoResolver{collection: collection, timeout: timeout}
}

func (m *MongoResolver) Resolve(ctx context.Context, point coordinates.Coordinate) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	filter := bson.M{
		"geometry": bson.M{
			"$geoIntersects": bson.M{
				"$geometry": bson.M{
					"type":        "Point",
					"coordinates": []float64{point.Lon, point.Lat},
				},
			},
		},
	}
	opts := options.FindOne().
		SetProjection(bson.M{"name": 1}).
		SetSort(bson.D{{Key: "order", Value: 1}})

	var result struct {
		Name string `bson:"name"`
	}
	err := m.collection.FindOne(ctx, filter, opts).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		metrics.RegionLookups.WithLabelValues(metrics.OutcomeMiss).Inc()
		return "", nil
	}
	if err != nil {
		metrics.RegionLookups.WithLabelValues(metrics.OutcomeError).Inc()
		return "", fmt.Errorf("region lookup: %w", err)
	}

	metrics.RegionLookups.WithLabelValues(metrics.OutcomeHit).Inc()
	return result.Name, nil
}

// CachedResolver запоминает результаты поиска по точке, включая промахи.
// Кэш сбрасывается целиком при превышении лимита.
type CachedResolver struct {
	next   Resolver
	limit  int
	logger *zap.Logger

	mu   sync.RWMutex
	data map[cacheKey]string
}

type cacheKey struct {
	lat float64
	lon float64
}

func NewCachedResolver(next Resolver, limit int, logger *zap.Logger) *CachedResolver {
	return &CachedResolver{
		next:   next,
		limit:  limit,
		logger: logger,
		data:   make(map[cacheKey]string),
	}
}

func (c *CachedResolver) Resolve(ctx context.Context, point coordinates.Coordinate) (string, error) {
	key := cacheKey{lat: point.Lat, lon: point.Lon}

	c.mu.RLock()
	name, ok := c.data[key]
	c.mu.RUnlock()
	if ok {
		metrics.RegionLookups.WithLabelValues(metrics.OutcomeCache).Inc()
		return name, nil
	}

	name, err := c.next.Resolve(ctx, point)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	if c.limit > 0 && len(c.data) >= c.limit {
		c.logger.Debug("Region cache reset", zap.Int("size", len(c.data)))
		c.data = make(map[cacheKey]string)
	}
	c.data[key] = name
	c.mu.Unlock()

	return name, nil
}

func (c *CachedResolver) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
