package flights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	"droneanalytics/packages/parsing/coordinates"
)

type resolverFunc func(ctx context.Context, point coordinates.Coordinate) (string, error)

func (f resolverFunc) Resolve(ctx context.Context, point coordinates.Coordinate) (string, error) {
	return f(ctx, point)
}

// Все точки севернее 55-й параллели - "Север", остальные вне регионов
func northResolver() Resolver {
	return resolverFunc(func(_ context.Context, p coordinates.Coordinate) (string, error) {
		if p.Lat > 55 {
			return "Север", nil
		}
		return "", nil
	})
}

const (
	shr = "(SHR-ZZZZZ -ZZZZ0705 -M0000/M0005 /ZONA R0,5 5509N03733E/ -ZZZZ0900 " +
		"-DEP/5509N03733E DEST/5000N03000E DOF/250201 OPR/ИВАНОВ TYP/BLA SID/7772251137)"
	dep = "-TITLE IDEP -SID 7772251137 -ADD 250201 -ATD 0705 -ADEP ZZZZ -ADEPZ 5509N03733E"
	arr = "-TITLE IARR -SID 7772251137 -ADA 250201 -ATA 0900 -ADARR ZZZZ -ADARRZ 5509N03733E"
)

type BuilderSuite struct {
	suite.Suite
	builder *Builder
}

func (s *BuilderSuite) SetupTest() {
	s.builder = NewBuilder(northResolver(), 3, zaptest.NewLogger(s.T()))
}

func (s *BuilderSuite) TestFullRow() {
	res := s.builder.Build(context.Background(), SourceRow{Number: 2, Center: " Московский ", SHR: shr, DEP: dep, ARR: arr})
	s.Require().False(res.Skipped())
	r := res.Record

	s.Equal("7772251137", r.ID)
	s.Equal("Московский", r.Center)
	s.Equal("ИВАНОВ", r.Operator)
	s.Equal("R0,5", r.Zone)
	s.Require().NotNil(r.AircraftType)
	s.Equal("BLA", *r.AircraftType)

	s.Equal("2025-02-01", r.DepartureDate.String())
	s.Equal("07:05:00", r.DepartureTime.String())
	s.Equal("09:00:00", r.ArrivalTime.String())

	s.Require().NotNil(r.DepartureLatitude)
	s.Equal(55.15, *r.DepartureLatitude)
	s.Equal(37.55, *r.DepartureLongitude)
	s.Require().NotNil(r.DepartureRegion)
	s.Equal("Север", *r.DepartureRegion)
	s.Require().NotNil(r.ArrivalRegion)

	d := r.Duration(48 * time.Hour)
	s.Require().NotNil(d)
	s.InDelta(115, *d, 1e-9)
}

func (s *BuilderSuite) TestPlanDoesNotFillActualFlight() {
	// В DEP нет ни даты, ни координаты, в ARR нет координаты: DOF/, DEP/ и DEST/ плана не подставляются
	res := s.builder.Build(context.Background(), SourceRow{
		Number: 3,
		SHR:    shr,
		DEP:    "-TITLE IDEP -ATD 0705",
		ARR:    "-TITLE IARR -ATA 0900",
	})
	s.Require().False(res.Skipped())
	r := res.Record

	s.Equal("7772251137", r.ID)
	s.Nil(r.DepartureDate)
	s.Nil(r.ArrivalDate)
	s.Require().NotNil(r.PlanDate)
	s.Equal("2025-02-01", r.PlanDate.String())

	s.Nil(r.DepartureLatitude)
	s.Nil(r.DepartureLongitude)
	s.Nil(r.DepartureRegion)
	s.Nil(r.ArrivalLatitude)
	s.Nil(r.ArrivalLongitude)
	s.Nil(r.ArrivalRegion)
}

func (s *BuilderSuite) TestIdentifierFallback() {
	res := s.builder.Build(context.Background(), SourceRow{Number: 9, DEP: "-SID 42 -ATD 0100"})
	s.Require().False(res.Skipped())
	s.Equal("42", res.Record.ID)

	res = s.builder.Build(context.Background(), SourceRow{Number: 10, ARR: "-ATA 0100"})
	s.Require().False(res.Skipped())
	s.Equal("row-10", res.Record.ID)
}

func (s *BuilderSuite) TestEmptyRowSkipped() {
	res := s.builder.Build(context.Background(), SourceRow{Number: 4, Center: "Московский", SHR: "  "})
	s.True(res.Skipped())
	s.Equal(ReasonEmptyRow, res.Reason)
	s.Equal(4, res.Row)
}

func (s *BuilderSuite) TestMalformedFieldsBecomeNull() {
	res := s.builder.Build(context.Background(), SourceRow{
		Number: 5,
		SHR:    "SID/1",
		DEP:    "-ADD 251340 -ATD 9999 -ADEPZ 9900N03733E",
		ARR:    "-ADA 250101 -ADARRZ garbage",
	})
	s.Require().False(res.Skipped())
	r := res.Record

	s.Nil(r.AircraftType)
	s.Nil(r.DepartureDate)
	s.Nil(r.DepartureTime)
	s.Nil(r.DepartureLatitude)
	s.Nil(r.DepartureRegion)
	s.Nil(r.ArrivalLatitude)
	s.Require().NotNil(r.ArrivalDate)
}

func TestBuilderSuite(t *testing.T) {
	suite.Run(t, new(BuilderSuite))
}

func TestBuildRecoversFromPanic(t *testing.T) {
	b := NewBuilder(resolverFunc(func(context.Context, coordinates.Coordinate) (string, error) {
		panic("broken geometry")
	}), 6, zaptest.NewLogger(t))

	var res Result
	require.NotPanics(t, func() {
		res = b.Build(context.Background(), SourceRow{Number: 7, DEP: dep})
	})
	assert.True(t, res.Skipped())
	assert.Equal(t, ReasonUnparseable, res.Reason)
}

func TestBuildResolverErrorLeavesRegionNull(t *testing.T) {
	b := NewBuilder(resolverFunc(func(context.Context, coordinates.Coordinate) (string, error) {
		return "", errors.New("connection refused")
	}), 6, zaptest.NewLogger(t))

	res := b.Build(context.Background(), SourceRow{Number: 1, DEP: dep})
	require.False(t, res.Skipped())
	assert.Nil(t, res.Record.DepartureRegion)
	assert.NotNil(t, res.Record.DepartureLatitude)
}

func TestBuildWithoutResolver(t *testing.T) {
	b := NewBuilder(nil, 6, zaptest.NewLogger(t))
	res := b.Build(context.Background(), SourceRow{Number: 1, DEP: dep})
	require.False(t, res.Skipped())
	assert.Nil(t, res.Record.DepartureRegion)
}
