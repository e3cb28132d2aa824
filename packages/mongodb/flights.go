package mongodb

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"droneanalytics/packages/apperrors"
	"droneanalytics/packages/flights"
)

// FlightStore - коллекция записей о полетах
type FlightStore struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

func NewFlightStore(collection *mongo.Collection, logger *zap.Logger) *FlightStore {
	return &FlightStore{collection: collection, logger: logger}
}

// EnsureIndexes создает индексы под фильтры отчета и откат загрузки
func (s *FlightStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "departure_date", Value: 1}}},
		{Keys: bson.D{{Key: "reg_departure", Value: 1}}},
		{Keys: bson.D{{Key: "batch_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create flight indexes: %w", err)
	}
	return nil
}

// InsertBatch сохраняет все записи одной загрузки под общим batch_id.
// При ошибке вставки уже записанные документы загрузки удаляются.
func (s *FlightStore) InsertBatch(ctx context.Context, records []flights.Record) (string, int, error) {
	batchID := uuid.NewString()
	if len(records) == 0 {
		return batchID, 0, nil
	}

	docs := make([]interface{}, len(records))
	for i, r := range records {
		r.BatchID = batchID
		docs[i] = r
	}

	result, err := s.collection.InsertMany(ctx, docs)
	if err != nil {
		s.logger.Error("Batch insert failed, rolling back",
			zap.String("batch_id", batchID),
			zap.Error(err),
		)
		if _, delErr := s.collection.DeleteMany(context.WithoutCancel(ctx), bson.M{"batch_id": batchID}); delErr != nil {
			s.logger.Error("Batch rollback failed", zap.String("batch_id", batchID), zap.Error(delErr))
		}
		return "", 0, apperrors.ErrDatabase.WithCause(err)
	}

	s.logger.Info("Batch inserted", zap.String("batch_id", batchID), zap.Int("count", len(result.InsertedIDs)))
	return batchID, len(result.InsertedIDs), nil
}

// Find возвращает записи, отобранные по датам на стороне MongoDB.
// Фильтр по региону (подстрока без учета регистра) применяется вызывающим кодом.
func (s *FlightStore) Find(ctx context.Context, filter flights.Filter) ([]flights.Record, error) {
	cursor, err := s.collection.Find(ctx, buildQuery(filter), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, apperrors.ErrDatabase.WithCause(err)
	}
	defer cursor.Close(ctx)

	records := []flights.Record{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, apperrors.ErrDatabase.WithCause(err)
	}
	return records, nil
}

// buildQuery переводит период фильтра в запрос; даты хранятся строками ISO
func buildQuery(filter flights.Filter) bson.M {
	if filter.IncludeAll || (filter.From == nil && filter.To == nil) {
		return bson.M{}
	}

	bounds := bson.M{"$ne": nil}
	if filter.From != nil {
		bounds["$gte"] = filter.From.String()
	}
	if filter.To != nil {
		bounds["$lte"] = filter.To.String()
	}
	return bson.M{"departure_date": bounds}
}

// Regions возвращает отсортированный список регионов вылета и посадки
func (s *FlightStore) Regions(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	for _, field := range []string{"reg_departure", "reg_arrival"} {
		values, err := s.collection.Distinct(ctx, field, bson.M{field: bson.M{"$ne": nil}})
		if err != nil {
			return nil, apperrors.ErrDatabase.WithCause(err)
		}
		for _, v := range values {
			if name, ok := v.(string); ok && name != "" {
				seen[name] = struct{}{}
			}
		}
	}

	regions := make([]string, 0, len(seen))
	for name := range seen {
		regions = append(regions, name)
	}
	sort.Strings(regions)
	return regions, nil
}

// Heatmap возвращает координаты вылетов из региона
func (s *FlightStore) Heatmap(ctx context.Context, region string) ([]flights.HeatPoint, error) {
	filter := bson.M{
		"reg_departure":       region,
		"departure_latitude":  bson.M{"$ne": nil},
		"departure_longitude": bson.M{"$ne": nil},
	}
	opts := options.Find().SetProjection(bson.M{"departure_latitude": 1, "departure_longitude": 1, "_id": 0})

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperrors.ErrDatabase.WithCause(err)
	}
	defer cursor.Close(ctx)

	points := []flights.HeatPoint{}
	for cursor.Next(ctx) {
		var doc struct {
			Lat *float64 `bson:"departure_latitude"`
			Lon *float64 `bson:"departure_longitude"`
		}
		if err := cursor.Decode(&doc); err != nil {
			s.logger.Warn("Failed to decode heatmap point", zap.Error(err))
			continue
		}
		if doc.Lat == nil || doc.Lon == nil {
			continue
		}
		points = append(points, flights.HeatPoint{Lat: *doc.Lat, Lng: *doc.Lon})
	}
	if err := cursor.Err(); err != nil {
		return nil, apperrors.ErrDatabase.WithCause(err)
	}
	return points, nil
}
