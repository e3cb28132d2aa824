package geoIndex

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

// Region - административный регион: название и полигон (или мультиполигон)
type Region struct {
	Name     string
	Order    int
	Geometry orb.Geometry
	Bound    orb.Bound
}

// Set - неизменяемый набор регионов в порядке загрузки.
// После создания только читается, поэтому безопасен для параллельного доступа.
type Set struct {
	regions []Region
}

var ErrNoRegions = errors.New("no regions loaded")

// NewSet нумерует регионы в порядке следования и считает их границы
func NewSet(regions []Region) *Set {
	out := make([]Region, len(regions))
	for i, r := range regions {
		r.Order = i
		r.Bound = r.Geometry.Bound()
		out[i] = r
	}
	return &Set{regions: out}
}

// Regions возвращает регионы в порядке загрузки; срез нельзя изменять
func (s *Set) Regions() []Region {
	return s.regions
}

func (s *Set) Len() int {
	return len(s.regions)
}

// Поля properties с названием региона, по убыванию приоритета
var nameKeys = []string{
	"official_name:ru", "official_name",
	"name_ru", "region",
	"alt_name:ru", "alt_name",
	"name:ru", "name",
	"int_name", "NAME",
	"region_name", "subject",
}

// LoadDir загружает все .geojson/.json файлы каталога (в лексическом порядке).
// Объекты без названия или с некорректной геометрией пропускаются.
func LoadDir(dir string, logger *zap.Logger) (*Set, error) {
	files, err := getGeoJSONFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read regions dir %s: %w", dir, err)
	}

	logger.Info("Loading regions", zap.String("dir", dir), zap.Int("files", len(files)))

	var regions []Region
	var skipped int
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			logger.Warn("Failed to read GeoJSON file", zap.String("file", file), zap.Error(err))
			skipped++
			continue
		}

		loaded, bad, err := ParseFeatureCollection(data, logger.With(zap.String("file", filepath.Base(file))))
		if err != nil {
			logger.Warn("Failed to parse GeoJSON file", zap.String("file", file), zap.Error(err))
			skipped++
			continue
		}
		regions = append(regions, loaded...)
		skipped += bad
	}

	logger.Info("Regions loaded", zap.Int("loaded", len(regions)), zap.Int("skipped", skipped))

	if len(regions) == 0 {
		return nil, ErrNoRegions
	}
	return NewSet(regions), nil
}

// ParseFeatureCollection разбирает один FeatureCollection.
// Возвращает регионы в порядке объектов файла и число пропущенных объектов.
func ParseFeatureCollection(data []byte, logger *zap.Logger) ([]Region, int, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, 0, err
	}

	var regions []Region
	var skipped int
	for i, feature := range fc.Features {
		name := extractRegionName(feature.Properties)
		if name == "" {
			logger.Warn("Region name not found", zap.Int("feature", i))
			skipped++
			continue
		}

		if err := validateGeometry(feature.Geometry); err != nil {
			logger.Warn("Invalid region geometry", zap.String("region", name), zap.Error(err))
			skipped++
			continue
		}

		regions = append(regions, Region{Name: name, Geometry: feature.Geometry})
	}
	return regions, skipped, nil
}

// getGeoJSONFiles возвращает .geojson и .json файлы каталога, отсортированные по пути
func getGeoJSONFiles(dirPath string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dirPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".geojson" || ext == ".json" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

func extractRegionName(properties geojson.Properties) string {
	for _, key := range nameKeys {
		if name, ok := properties[key].(string); ok && strings.TrimSpace(name) != "" {
			return strings.TrimSpace(name)
		}
	}
	return ""
}

// validateGeometry: только Polygon и MultiPolygon с замкнутыми кольцами от 4 точек
func validateGeometry(g orb.Geometry) error {
	switch geom := g.(type) {
	case nil:
		return errors.New("empty geometry")
	case orb.Polygon:
		return validatePolygon(geom)
	case orb.MultiPolygon:
		if len(geom) == 0 {
			return errors.New("empty multipolygon")
		}
		for _, p := range geom {
			if err := validatePolygon(p); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported geometry type %s", g.GeoJSONType())
	}
}

func validatePolygon(p orb.Polygon) error {
	if len(p) == 0 {
		return errors.New("polygon without rings")
	}
	for _, ring := range p {
		if len(ring) < 4 {
			return errors.New("ring must have at least 4 points")
		}
		if !ring.Closed() {
			return errors.New("ring is not closed")
		}
	}
	return nil
}
