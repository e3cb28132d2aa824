package flights

import (
	"strings"
	"time"

	"droneanalytics/packages/parsing/datetime"
)

// Record - нормализованная запись об одном полете.
// Отсутствующее значение хранится как nil (null в MongoDB и JSON).
type Record struct {
	ID           string  `bson:"sid" json:"id"`
	AircraftType *string `bson:"aircraft_type" json:"aircraft_type"`

	DepartureDate      *datetime.Date  `bson:"departure_date" json:"departure_date"`
	DepartureTime      *datetime.Clock `bson:"departure_time" json:"departure_time"`
	DepartureRegion    *string         `bson:"reg_departure" json:"reg_departure"`
	DepartureLatitude  *float64        `bson:"departure_latitude" json:"departure_latitude"`
	DepartureLongitude *float64        `bson:"departure_longitude" json:"departure_longitude"`

	ArrivalDate      *datetime.Date  `bson:"arrival_date" json:"arrival_date"`
	ArrivalTime      *datetime.Clock `bson:"arrival_time" json:"arrival_time"`
	ArrivalRegion    *string         `bson:"reg_arrival" json:"reg_arrival"`
	ArrivalLatitude  *float64        `bson:"arrival_latitude" json:"arrival_latitude"`
	ArrivalLongitude *float64        `bson:"arrival_longitude" json:"arrival_longitude"`

	// Центр ЕС ОрВД, оператор и зона из плана полета
	Center   string `bson:"center,omitempty" json:"center,omitempty"`
	Operator string `bson:"operator,omitempty" json:"operator,omitempty"`
	Zone     string `bson:"zone,omitempty" json:"zone,omitempty"`
	// Дата из плана (DOF/), в статистику вылетов не входит
	PlanDate *datetime.Date `bson:"plan_date,omitempty" json:"plan_date,omitempty"`

	BatchID string `bson:"batch_id,omitempty" json:"batch_id,omitempty"`
}

// Duration возвращает длительность полета в минутах или nil.
// Посадка раньше вылета означает переход через полночь: к посадке добавляются сутки.
// Длительность больше limit (если limit > 0) считается недостоверной.
func (r Record) Duration(limit time.Duration) *float64 {
	if r.DepartureDate == nil || r.DepartureTime == nil || r.ArrivalDate == nil || r.ArrivalTime == nil {
		return nil
	}

	dep := datetime.Combine(*r.DepartureDate, *r.DepartureTime)
	arr := datetime.Combine(*r.ArrivalDate, *r.ArrivalTime)
	if arr.Before(dep) {
		arr = arr.Add(24 * time.Hour)
	}
	if arr.Before(dep) {
		return nil
	}

	d := arr.Sub(dep)
	if limit > 0 && d > limit {
		return nil
	}
	minutes := d.Seconds() / 60
	return &minutes
}

// Filter - отбор записей для отчета
type Filter struct {
	From *datetime.Date
	To   *datetime.Date
	// Подстрока названия региона вылета или посадки, без учета регистра
	Region string
	// IncludeAll отключает фильтр по датам
	IncludeAll bool
}

func (f Filter) Match(r Record) bool {
	if !f.IncludeAll && (f.From != nil || f.To != nil) {
		if r.DepartureDate == nil {
			return false
		}
		if f.From != nil && r.DepartureDate.Before(*f.From) {
			return false
		}
		if f.To != nil && r.DepartureDate.After(*f.To) {
			return false
		}
	}

	region := strings.ToLower(strings.TrimSpace(f.Region))
	if region == "" {
		return true
	}
	return containsFold(r.DepartureRegion, region) || containsFold(r.ArrivalRegion, region)
}

func containsFold(name *string, lowered string) bool {
	return name != nil && strings.Contains(strings.ToLower(*name), lowered)
}

// Apply возвращает записи, прошедшие фильтр, в исходном порядке
func (f Filter) Apply(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// HeatPoint - точка вылета для тепловой карты
type HeatPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
