package flights

import (
	"math"
	"time"
)

// Placeholder подставляется в представление вместо отсутствующих значений
const Placeholder = "Не заполнено"

// View - запись в виде для таблицы на фронтенде
type View struct {
	ID           string `json:"id"`
	AircraftType string `json:"aircraft_type"`

	DepartureDate      string `json:"departure_date"`
	DepartureTime      string `json:"departure_time"`
	DepartureWeekday   string `json:"departure_weekday"`
	DepartureRegion    string `json:"reg_departure"`
	DepartureLatitude  any    `json:"departure_latitude"`
	DepartureLongitude any    `json:"departure_longitude"`

	ArrivalDate      string `json:"arrival_date"`
	ArrivalTime      string `json:"arrival_time"`
	ArrivalRegion    string `json:"reg_arrival"`
	ArrivalLatitude  any    `json:"arrival_latitude"`
	ArrivalLongitude any    `json:"arrival_longitude"`

	// Минуты или Placeholder
	Duration any `json:"duration"`
}

func NewView(r Record, maxDuration time.Duration) View {
	v := View{
		ID:                 r.ID,
		AircraftType:       text(r.AircraftType),
		DepartureDate:      Placeholder,
		DepartureTime:      Placeholder,
		DepartureWeekday:   Placeholder,
		DepartureRegion:    text(r.DepartureRegion),
		DepartureLatitude:  number(r.DepartureLatitude),
		DepartureLongitude: number(r.DepartureLongitude),
		ArrivalDate:        Placeholder,
		ArrivalTime:        Placeholder,
		ArrivalRegion:      text(r.ArrivalRegion),
		ArrivalLatitude:    number(r.ArrivalLatitude),
		ArrivalLongitude:   number(r.ArrivalLongitude),
		Duration:           Placeholder,
	}

	if r.DepartureDate != nil {
		v.DepartureDate = r.DepartureDate.String()
		v.DepartureWeekday = r.DepartureDate.WeekdayLabel()
	}
	if r.DepartureTime != nil {
		v.DepartureTime = r.DepartureTime.String()
	}
	if r.ArrivalDate != nil {
		v.ArrivalDate = r.ArrivalDate.String()
	}
	if r.ArrivalTime != nil {
		v.ArrivalTime = r.ArrivalTime.String()
	}
	if d := r.Duration(maxDuration); d != nil {
		v.Duration = int(math.RoundToEven(*d))
	}

	return v
}

func NewViews(records []Record, maxDuration time.Duration) []View {
	views := make([]View, len(records))
	for i, r := range records {
		views[i] = NewView(r, maxDuration)
	}
	return views
}

func text(s *string) string {
	if s == nil {
		return Placeholder
	}
	return *s
}

func number(f *float64) any {
	if f == nil {
		return Placeholder
	}
	return *f
}
