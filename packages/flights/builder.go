package flights

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"droneanalytics/packages/parsing"
	"droneanalytics/packages/parsing/coordinates"
)

// Resolver определяет регион по точке. Пустое имя - точка вне всех регионов.
type Resolver interface {
	Resolve(ctx context.Context, point coordinates.Coordinate) (string, error)
}

// SourceRow - одна строка исходной таблицы
type SourceRow struct {
	Number int
	Center string
	SHR    string
	DEP    string
	ARR    string
}

func (r SourceRow) Blank() bool {
	return strings.TrimSpace(r.SHR) == "" && strings.TrimSpace(r.DEP) == "" && strings.TrimSpace(r.ARR) == ""
}

const (
	ReasonEmptyRow    = "empty row"
	ReasonUnparseable = "unparseable row"
)

// Result - итог обработки строки: запись либо пропуск с причиной
type Result struct {
	Row    int
	Record *Record
	Reason string
}

func (r Result) Skipped() bool {
	return r.Record == nil
}

type Builder struct {
	resolver  Resolver
	precision int32
	logger    *zap.Logger
}

// NewBuilder; resolver может быть nil, тогда регионы не определяются
func NewBuilder(resolver Resolver, precision int32, logger *zap.Logger) *Builder {
	return &Builder{
		resolver:  resolver,
		precision: precision,
		logger:    logger,
	}
}

// Build превращает строку таблицы в запись. Паника внутри разбора не выходит
// за пределы строки: строка помечается как пропущенная.
func (b *Builder) Build(ctx context.Context, row SourceRow) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			b.logger.Warn("Failed to parse row",
				zap.Int("row", row.Number),
				zap.String("panic", fmt.Sprint(p)),
			)
			res = Result{Row: row.Number, Reason: ReasonUnparseable}
		}
	}()

	if row.Blank() {
		return Result{Row: row.Number, Reason: ReasonEmptyRow}
	}

	record := b.Assemble(ctx,
		parsing.ParsePlan(row.SHR),
		parsing.ParseDeparture(row.DEP),
		parsing.ParseArrival(row.ARR),
	)
	if record.ID == "" {
		record.ID = fmt.Sprintf("row-%d", row.Number)
	}
	record.Center = strings.TrimSpace(row.Center)

	return Result{Row: row.Number, Record: &record}
}

// Assemble собирает запись из разобранных телеграмм плана, вылета и посадки.
// Из плана берутся только идентификатор, тип, оператор и зона; дата и точки
// вылета и посадки - только из фактических DEP и ARR.
func (b *Builder) Assemble(ctx context.Context, plan, dep, arr parsing.Telegram) Record {
	record := Record{
		ID:           firstNonEmpty(plan.SID, dep.SID, arr.SID),
		AircraftType: optional(plan.AircraftType),
		Operator:     plan.Operator,
		Zone:         plan.Zone,
		PlanDate:     plan.Date,

		DepartureDate: dep.Date,
		DepartureTime: dep.Time,
		ArrivalDate:   arr.Date,
		ArrivalTime:   arr.Time,
	}

	if point := coordinates.Decode(dep.CoordinateToken); point != nil {
		record.DepartureRegion = b.resolve(ctx, *point)
		rounded := point.Rounded(b.precision)
		record.DepartureLatitude = &rounded.Lat
		record.DepartureLongitude = &rounded.Lon
	}

	if point := coordinates.Decode(arr.CoordinateToken); point != nil {
		record.ArrivalRegion = b.resolve(ctx, *point)
		rounded := point.Rounded(b.precision)
		record.ArrivalLatitude = &rounded.Lat
		record.ArrivalLongitude = &rounded.Lon
	}

	return record
}

func (b *Builder) resolve(ctx context.Context, point coordinates.Coordinate) *string {
	if b.resolver == nil {
		return nil
	}

	name, err := b.resolver.Resolve(ctx, point)
	if err != nil {
		b.logger.Warn("Region lookup failed",
			zap.Float64("lat", point.Lat),
			zap.Float64("lon", point.Lon),
			zap.Error(err),
		)
		return nil
	}
	return optional(name)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
