package geoSearch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap/zaptest"

	"droneanalytics/packages/parsing/coordinates"
	"droneanalytics/packages/parsing/geoIndex"
)

func square(minLon, minLat, maxLon, maxLat float64) orb.Polygon {
	return orb.Polygon{{
		{minLon, minLat}, {maxLon, minLat}, {maxLon, maxLat}, {minLon, maxLat}, {minLon, minLat},
	}}
}

func testSet() *geoIndex.Set {
	return geoIndex.NewSet([]geoIndex.Region{
		{Name: "Москва", Geometry: square(37, 55, 38, 56)},
		// пересекается с Москвой в квадрате 37.5-38 / 55.5-56
		{Name: "Московская область", Geometry: square(37.5, 55.5, 39, 57)},
		{Name: "Острова", Geometry: orb.MultiPolygon{
			square(40, 60, 41, 61),
			square(45, 60, 46, 61),
		}},
		// кольцо с отверстием
		{Name: "Бублик", Geometry: orb.Polygon{
			{{50, 50}, {54, 50}, {54, 54}, {50, 54}, {50, 50}},
			{{51, 51}, {53, 51}, {53, 53}, {51, 53}, {51, 51}},
		}},
	})
}

func TestMemoryResolver(t *testing.T) {
	r := NewMemoryResolver(testSet())
	ctx := context.Background()

	cases := []struct {
		name  string
		point coordinates.Coordinate
		want  string
	}{
		{"inside single polygon", coordinates.Coordinate{Lat: 55.2, Lon: 37.2}, "Москва"},
		{"overlap resolves to first loaded", coordinates.Coordinate{Lat: 55.75, Lon: 37.75}, "Москва"},
		{"only second polygon", coordinates.Coordinate{Lat: 56.5, Lon: 38.5}, "Московская область"},
		{"multipolygon second part", coordinates.Coordinate{Lat: 60.5, Lon: 45.5}, "Острова"},
		{"gap between multipolygon parts", coordinates.Coordinate{Lat: 60.5, Lon: 43}, ""},
		{"polygon ring", coordinates.Coordinate{Lat: 50.5, Lon: 50.5}, "Бублик"},
		{"polygon hole", coordinates.Coordinate{Lat: 52, Lon: 52}, ""},
		{"far outside", coordinates.Coordinate{Lat: -33.9, Lon: 151.2}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			name, err := r.Resolve(ctx, tc.point)
			require.NoError(t, err)
			assert.Equal(t, tc.want, name)
		})
	}
}

func TestMemoryResolverUsesPlanarEdges(t *testing.T) {
	// геодезическая между (0, 60) и (60, 60) проходит около 63.4 с.ш. на 30 в.д.
	r := NewMemoryResolver(geoIndex.NewSet([]geoIndex.Region{
		{Name: "Полоса", Geometry: square(0, 50, 60, 60)},
	}))

	name, err := r.Resolve(context.Background(), coordinates.Coordinate{Lat: 59.9, Lon: 30})
	require.NoError(t, err)
	assert.Equal(t, "Полоса", name)

	name, err = r.Resolve(context.Background(), coordinates.Coordinate{Lat: 60.5, Lon: 30})
	require.NoError(t, err)
	assert.Empty(t, name)
}

type countingResolver struct {
	calls atomic.Int32
	name  string
	err   error
}

func (c *countingResolver) Resolve(context.Context, coordinates.Coordinate) (string, error) {
	c.calls.Add(1)
	return c.name, c.err
}

func TestCachedResolverMemoizes(t *testing.T) {
	next := &countingResolver{name: "Москва"}
	cached := NewCachedResolver(next, 10, zaptest.NewLogger(t))
	p := coordinates.Coordinate{Lat: 55.75, Lon: 37.62}

	for i := 0; i < 5; i++ {
		name, err := cached.Resolve(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, "Москва", name)
	}
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestCachedResolverRemembersMisses(t *testing.T) {
	next := &countingResolver{}
	cached := NewCachedResolver(next, 10, zaptest.NewLogger(t))
	p := coordinates.Coordinate{Lat: 0, Lon: 0}

	for i := 0; i < 3; i++ {
		name, err := cached.Resolve(context.Background(), p)
		require.NoError(t, err)
		assert.Empty(t, name)
	}
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestCachedResolverResetsWhenFull(t *testing.T) {
	next := &countingResolver{name: "X"}
	cached := NewCachedResolver(next, 3, zaptest.NewLogger(t))

	for i := 0; i < 3; i++ {
		_, err := cached.Resolve(context.Background(), coordinates.Coordinate{Lat: float64(i)})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, cached.Len())

	_, err := cached.Resolve(context.Background(), coordinates.Coordinate{Lat: 100})
	require.NoError(t, err)
	assert.Equal(t, 1, cached.Len())
}

func TestCachedResolverDoesNotCacheErrors(t *testing.T) {
	next := &countingResolver{err: errors.New("timeout")}
	cached := NewCachedResolver(next, 10, zaptest.NewLogger(t))
	p := coordinates.Coordinate{Lat: 1, Lon: 1}

	_, err := cached.Resolve(context.Background(), p)
	assert.Error(t, err)
	_, err = cached.Resolve(context.Background(), p)
	assert.Error(t, err)
	assert.Equal(t, int32(2), next.calls.Load())
	assert.Zero(t, cached.Len())
}

func TestCachedResolverConcurrentReaders(t *testing.T) {
	cached := NewCachedResolver(NewMemoryResolver(testSet()), 100, zaptest.NewLogger(t))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				name, err := cached.Resolve(context.Background(), coordinates.Coordinate{Lat: 55.2, Lon: 37.2})
				assert.NoError(t, err)
				assert.Equal(t, "Москва", name)
			}
		}()
	}
	wg.Wait()
}

func TestMongoResolver(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	point := coordinates.Coordinate{Lat: 55.75, Lon: 37.62}

	mt.Run("hit", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "name", Value: "Москва"}}))

		name, err := NewMongoResolver(mt.Coll, time.Second).Resolve(context.Background(), point)
		require.NoError(mt, err)
		assert.Equal(mt, "Москва", name)

		find := mt.GetStartedEvent()
		require.NotNil(mt, find)
		assert.Equal(mt, "find", find.CommandName)
		assert.Equal(mt, "Point", find.Command.Lookup("filter", "geometry", "$geoIntersects", "$geometry", "type").StringValue())
		coords, err := find.Command.Lookup("filter", "geometry", "$geoIntersects", "$geometry", "coordinates").Array().Values()
		require.NoError(mt, err)
		require.Len(mt, coords, 2)
		assert.Equal(mt, 37.62, coords[0].Double())
		assert.Equal(mt, 55.75, coords[1].Double())
		assert.Equal(mt, "order", find.Command.Lookup("sort").Document().Index(0).Key())
	})

	mt.Run("miss", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		name, err := NewMongoResolver(mt.Coll, time.Second).Resolve(context.Background(), point)
		require.NoError(mt, err)
		assert.Empty(mt, name)
	})

	mt.Run("server error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 2, Name: "BadValue", Message: "Can't extract geo keys",
		}))

		name, err := NewMongoResolver(mt.Coll, time.Second).Resolve(context.Background(), point)
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "region lookup")
		assert.Empty(mt, name)
	})
}
