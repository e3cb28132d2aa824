package geoIndex

import (
	"context"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Документ региона в MongoDB
type regionDocument struct {
	Name     string       `bson:"name"`
	Order    int          `bson:"order"`
	Geometry geometryBSON `bson:"geometry"`
}

type geometryBSON struct {
	Type        string        `bson:"type"`
	Coordinates bson.RawValue `bson:"coordinates"`
}

// Sync заменяет содержимое коллекции регионами набора. Регионы пишутся во
// временную коллекцию с индексами, затем она переименовывается поверх рабочей,
// поэтому при ошибке рабочая коллекция остается прежней.
func Sync(ctx context.Context, collection *mongo.Collection, set *Set, logger *zap.Logger) error {
	if set == nil || set.Len() == 0 {
		return ErrNoRegions
	}

	docs := make([]interface{}, 0, set.Len())
	for _, r := range set.Regions() {
		docs = append(docs, bson.M{
			"name":     r.Name,
			"order":    r.Order,
			"geometry": geometryDocument(r.Geometry),
		})
	}

	db := collection.Database()
	staging := db.Collection(collection.Name() + stagingSuffix)
	if err := staging.Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop staging collection %s: %w", staging.Name(), err)
	}

	if err := fillStaging(ctx, staging, docs, logger); err != nil {
		if dropErr := staging.Drop(context.WithoutCancel(ctx)); dropErr != nil {
			logger.Warn("Failed to drop staging collection", zap.String("collection", staging.Name()), zap.Error(dropErr))
		}
		return fmt.Errorf("regions collection %s left unchanged: %w", collection.Name(), err)
	}

	rename := bson.D{
		{Key: "renameCollection", Value: db.Name() + "." + staging.Name()},
		{Key: "to", Value: db.Name() + "." + collection.Name()},
		{Key: "dropTarget", Value: true},
	}
	if err := db.Client().Database("admin").RunCommand(ctx, rename).Err(); err != nil {
		return fmt.Errorf("failed to replace regions collection %s (staging %s kept): %w",
			collection.Name(), staging.Name(), err)
	}

	logger.Info("Regions collection replaced", zap.String("collection", collection.Name()), zap.Int("count", len(docs)))
	return nil
}

const stagingSuffix = "_staging"

func fillStaging(ctx context.Context, staging *mongo.Collection, docs []interface{}, logger *zap.Logger) error {
	result, err := staging.InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("failed to insert regions: %w", err)
	}
	logger.Info("Regions inserted", zap.Int("count", len(result.InsertedIDs)))

	ctxIndex, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	names, err := staging.Indexes().CreateMany(ctxIndex, []mongo.IndexModel{
		{Keys: bson.D{{Key: "geometry", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "order", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create 2dsphere index: %w", err)
	}
	logger.Info("Region indexes created", zap.Strings("indexes", names))
	return nil
}

// LoadCollection читает набор регионов, ранее опубликованный Sync
func LoadCollection(ctx context.Context, collection *mongo.Collection, logger *zap.Logger) (*Set, error) {
	cursor, err := collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "order", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query regions: %w", err)
	}
	defer cursor.Close(ctx)

	var regions []Region
	for cursor.Next(ctx) {
		var doc regionDocument
		if err := cursor.Decode(&doc); err != nil {
			logger.Warn("Failed to decode region", zap.Error(err))
			continue
		}

		geometry, err := decodeGeometry(doc.Geometry)
		if err != nil {
			logger.Warn("Failed to decode region geometry", zap.String("region", doc.Name), zap.Error(err))
			continue
		}
		regions = append(regions, Region{Name: doc.Name, Geometry: geometry})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to read regions: %w", err)
	}

	logger.Info("Regions loaded from MongoDB", zap.Int("count", len(regions)))
	if len(regions) == 0 {
		return nil, ErrNoRegions
	}
	return NewSet(regions), nil
}

// geometryDocument переводит геометрию в GeoJSON-документ, понятный 2dsphere индексу
func geometryDocument(g orb.Geometry) bson.M {
	doc := bson.M{"type": g.GeoJSONType()}
	switch geom := g.(type) {
	case orb.Polygon:
		doc["coordinates"] = polygonCoordinates(geom)
	case orb.MultiPolygon:
		coords := make([][][][]float64, len(geom))
		for i, p := range geom {
			coords[i] = polygonCoordinates(p)
		}
		doc["coordinates"] = coords
	}
	return doc
}

func polygonCoordinates(p orb.Polygon) [][][]float64 {
	rings := make([][][]float64, len(p))
	for i, ring := range p {
		points := make([][]float64, len(ring))
		for j, pt := range ring {
			points[j] = []float64{pt[0], pt[1]}
		}
		rings[i] = points
	}
	return rings
}

func decodeGeometry(g geometryBSON) (orb.Geometry, error) {
	switch g.Type {
	case "Polygon":
		var coords [][][]float64
		if err := g.Coordinates.Unmarshal(&coords); err != nil {
			return nil, fmt.Errorf("polygon coordinates: %w", err)
		}
		return toPolygon(coords), nil
	case "MultiPolygon":
		var coords [][][][]float64
		if err := g.Coordinates.Unmarshal(&coords); err != nil {
			return nil, fmt.Errorf("multipolygon coordinates: %w", err)
		}
		mp := make(orb.MultiPolygon, len(coords))
		for i, p := range coords {
			mp[i] = toPolygon(p)
		}
		return mp, nil
	default:
		return nil, fmt.Errorf("unsupported geometry type %q", g.Type)
	}
}

func toPolygon(coords [][][]float64) orb.Polygon {
	p := make(orb.Polygon, len(coords))
	for i, ring := range coords {
		r := make(orb.Ring, 0, len(ring))
		for _, pt := range ring {
			if len(pt) >= 2 {
				r = append(r, orb.Point{pt[0], pt[1]})
			}
		}
		p[i] = r
	}
	return p
}
