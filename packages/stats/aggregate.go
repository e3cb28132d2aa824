package stats

import (
	"fmt"
	"math"
	"sort"
	"time"

	"droneanalytics/packages/flights"
	"droneanalytics/packages/metrics"
	"droneanalytics/packages/parsing/datetime"
)

const DefaultTopN = 10

type Options struct {
	// Длина списков top/bottom регионов
	TopN int
	// Длительности больше MaxDuration отбрасываются (0 - без ограничения)
	MaxDuration time.Duration
}

type durationBin struct {
	label string
	limit float64
}

// Интервалы длительности в минутах; значение попадает в первый интервал с limit >= значения
var durationBins = []durationBin{
	{"< 10 мин", 10},
	{"10 - 30 мин", 30},
	{"30 мин - 1 ч", 60},
	{"1 - 2 ч", 120},
	{"2 - 4 ч", 240},
	{"4 - 8 ч", 480},
	{"8 - 12 ч", 720},
	{"12 - 24 ч", 1440},
	{"24+ ч", math.Inf(1)},
}

// Подписи полей для распределения пропусков
const (
	LabelDepartureDate      = "Дата вылета"
	LabelDepartureTime      = "Время вылета"
	LabelDepartureRegion    = "Регион вылета"
	LabelDepartureLatitude  = "Широта региона вылета"
	LabelDepartureLongitude = "Долгота региона вылета"
	LabelArrivalDate        = "Дата посадки"
	LabelArrivalTime        = "Время посадки"
	LabelArrivalRegion      = "Регион посадки"
	LabelArrivalLatitude    = "Широта региона посадки"
	LabelArrivalLongitude   = "Долгота региона посадки"
)

type nullCheck struct {
	label  string
	isNull func(r flights.Record) bool
}

var nullChecks = []nullCheck{
	{LabelDepartureDate, func(r flights.Record) bool { return r.DepartureDate == nil }},
	{LabelDepartureTime, func(r flights.Record) bool { return r.DepartureTime == nil }},
	{LabelDepartureRegion, func(r flights.Record) bool { return r.DepartureRegion == nil }},
	{LabelDepartureLatitude, func(r flights.Record) bool { return r.DepartureLatitude == nil }},
	{LabelDepartureLongitude, func(r flights.Record) bool { return r.DepartureLongitude == nil }},
	{LabelArrivalDate, func(r flights.Record) bool { return r.ArrivalDate == nil }},
	{LabelArrivalTime, func(r flights.Record) bool { return r.ArrivalTime == nil }},
	{LabelArrivalRegion, func(r flights.Record) bool { return r.ArrivalRegion == nil }},
	{LabelArrivalLatitude, func(r flights.Record) bool { return r.ArrivalLatitude == nil }},
	{LabelArrivalLongitude, func(r flights.Record) bool { return r.ArrivalLongitude == nil }},
}

// Aggregate фильтрует записи и строит отчет. Входной срез не изменяется.
func Aggregate(records []flights.Record, filter flights.Filter, opts Options) Report {
	started := time.Now()
	defer func() {
		metrics.ReportDuration.Observe(time.Since(started).Seconds())
	}()

	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}

	selected := filter.Apply(records)

	report := Report{
		TotalCountFlights:  len(selected),
		DistributionByType: make(map[string]int),
	}

	var durations []float64
	for _, r := range selected {
		if d := r.Duration(opts.MaxDuration); d != nil {
			durations = append(durations, *d)
		}
	}

	var total float64
	for _, d := range durations {
		total += d
	}
	report.TotalDuration = int64(math.RoundToEven(total))
	if len(durations) > 0 {
		report.MeanDuration = int64(math.RoundToEven(total / float64(len(durations))))
	}

	report.CountFlightsPerWeekday = weekdayHistogram(selected)
	report.DistributionByFlightDuration = durationHistogram(durations)

	for _, r := range selected {
		if r.AircraftType != nil {
			report.DistributionByType[*r.AircraftType]++
		}
	}

	report.DistributionNullFeatures = nullDistribution(selected)
	report.CountFlightsByMonth = monthlyTrend(selected)

	landing := countRegions(selected, func(r flights.Record) *string { return r.ArrivalRegion })
	takeoff := countRegions(selected, func(r flights.Record) *string { return r.DepartureRegion })
	report.TopLandingRegions, report.BottomLandingRegions = topBottom(landing, opts.TopN)
	report.TopTakeoffRegions, report.BottomTakeoffRegions = topBottom(takeoff, opts.TopN)

	return report
}

func weekdayHistogram(records []flights.Record) []LabeledCount {
	var counts [7]int
	for _, r := range records {
		if r.DepartureDate != nil {
			counts[r.DepartureDate.WeekdayIndex()]++
		}
	}

	out := make([]LabeledCount, 7)
	for i, label := range datetime.WeekdayLabels {
		out[i] = LabeledCount{Label: label, Count: counts[i]}
	}
	return out
}

func durationHistogram(durations []float64) []LabeledCount {
	out := make([]LabeledCount, len(durationBins))
	for i, bin := range durationBins {
		out[i].Label = bin.label
	}

	for _, d := range durations {
		for i, bin := range durationBins {
			if d <= bin.limit {
				out[i].Count++
				break
			}
		}
	}
	return out
}

func nullDistribution(records []flights.Record) map[string]int {
	out := make(map[string]int, len(nullChecks))
	for _, check := range nullChecks {
		out[check.label] = 0
	}
	for _, r := range records {
		for _, check := range nullChecks {
			if check.isNull(r) {
				out[check.label]++
			}
		}
	}
	return out
}

type yearMonth struct {
	year  int
	month time.Month
}

func monthlyTrend(records []flights.Record) []LabeledCount {
	counts := make(map[yearMonth]int)
	for _, r := range records {
		if r.DepartureDate != nil {
			counts[yearMonth{r.DepartureDate.Year, r.DepartureDate.Month}]++
		}
	}

	keys := make([]yearMonth, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	out := make([]LabeledCount, len(keys))
	for i, k := range keys {
		out[i] = LabeledCount{Label: fmt.Sprintf("%02d.%04d", int(k.month), k.year), Count: counts[k]}
	}
	return out
}

func countRegions(records []flights.Record, region func(flights.Record) *string) []RegionCount {
	counts := make(map[string]int)
	for _, r := range records {
		if name := region(r); name != nil {
			counts[*name]++
		}
	}

	out := make([]RegionCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, RegionCount{Region: name, Count: n})
	}
	return out
}

// topBottom: по убыванию и по возрастанию числа полетов, при равенстве по названию
func topBottom(counts []RegionCount, n int) (top, bottom []RegionCount) {
	top = append([]RegionCount(nil), counts...)
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Region < top[j].Region
	})

	bottom = append([]RegionCount(nil), counts...)
	sort.Slice(bottom, func(i, j int) bool {
		if bottom[i].Count != bottom[j].Count {
			return bottom[i].Count < bottom[j].Count
		}
		return bottom[i].Region < bottom[j].Region
	})

	return truncate(top, n), truncate(bottom, n)
}

func truncate(list []RegionCount, n int) []RegionCount {
	if list == nil {
		return []RegionCount{}
	}
	if len(list) > n {
		return list[:n]
	}
	return list
}
