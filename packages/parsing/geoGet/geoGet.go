package geoGet

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"droneanalytics/packages/parsing/geoIndex"
)

const cacheKey = "regions:geo"

// Регион, пересекающий антимеридиан: долготы сдвигаются, чтобы карта не рисовала полосу через весь мир
const chukotka = "Чукотский автономный округ"

// RegionGeoResponse структура для ответа API
type RegionGeoResponse struct {
	Region  string           `json:"region"`
	GeoJSON *geojson.Feature `json:"geojson"`
}

// Cache - хранилище готового ответа (Redis)
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

type Service struct {
	set    *geoIndex.Set
	cache  Cache
	logger *zap.Logger
}

// NewService; cache может быть nil
func NewService(set *geoIndex.Set, cache Cache, logger *zap.Logger) *Service {
	return &Service{set: set, cache: cache, logger: logger}
}

// GetRegionsGeo возвращает все регионы с их геоданными в формате GeoJSON
func GetRegionsGeo(set *geoIndex.Set) []RegionGeoResponse {
	results := make([]RegionGeoResponse, 0, set.Len())
	for _, r := range set.Regions() {
		geometry := r.Geometry
		if r.Name == chukotka {
			geometry = normalizeGeometry(geometry)
		}

		results = append(results, RegionGeoResponse{
			Region:  r.Name,
			GeoJSON: geojson.NewFeature(geometry),
		})
	}
	return results
}

// RegionsJSON возвращает сериализованный ответ, по возможности из кэша.
// Ошибки кэша не прерывают запрос.
func (s *Service) RegionsJSON(ctx context.Context) ([]byte, error) {
	if s.cache != nil {
		data, ok, err := s.cache.Get(ctx, cacheKey)
		if err != nil {
			s.logger.Warn("Regions cache read failed", zap.Error(err))
		} else if ok {
			return data, nil
		}
	}

	data, err := json.Marshal(GetRegionsGeo(s.set))
	if err != nil {
		return nil, fmt.Errorf("failed to encode regions: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, data); err != nil {
			s.logger.Warn("Regions cache write failed", zap.Error(err))
		}
	}
	return data, nil
}

// normalizeGeometry сдвигает долготы восточнее -170 на полмикроградуса к западу.
// Исходная геометрия набора не меняется.
func normalizeGeometry(g orb.Geometry) orb.Geometry {
	switch geom := g.(type) {
	case orb.Polygon:
		return shiftPolygon(geom)
	case orb.MultiPolygon:
		out := make(orb.MultiPolygon, len(geom))
		for i, p := range geom {
			out[i] = shiftPolygon(p)
		}
		return out
	default:
		return g
	}
}

func shiftPolygon(p orb.Polygon) orb.Polygon {
	out := make(orb.Polygon, len(p))
	for i, ring := range p {
		shifted := make(orb.Ring, len(ring))
		for j, pt := range ring {
			if pt[0] > -170 {
				pt[0] -= 0.0000005
			}
			shifted[j] = pt
		}
		out[i] = shifted
	}
	return out
}
