package stats

import (
	"encoding/json"
	"fmt"
)

// LabeledCount сериализуется как объект из одной пары {"подпись": количество}
type LabeledCount struct {
	Label string
	Count int
}

func (l LabeledCount) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]int{l.Label: l.Count})
}

func (l *LabeledCount) UnmarshalJSON(data []byte) error {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if len(m) != 1 {
		return fmt.Errorf("labeled count: expected one key, got %d", len(m))
	}
	for k, v := range m {
		l.Label, l.Count = k, v
	}
	return nil
}

type RegionCount struct {
	Region string `json:"region"`
	Count  int    `json:"count_flights"`
}

// Report - статистика по набору полетов. Считается на каждый запрос и нигде не хранится.
type Report struct {
	TotalCountFlights int `json:"total_count_flights"`
	// Минуты, округление к ближайшему четному
	TotalDuration int64 `json:"total_duration"`
	MeanDuration  int64 `json:"mean_duration"`

	CountFlightsPerWeekday       []LabeledCount `json:"count_flights_per_weekday"`
	DistributionByFlightDuration []LabeledCount `json:"distribution_by_flight_duration"`
	DistributionByType           map[string]int `json:"distribution_by_type"`
	DistributionNullFeatures     map[string]int `json:"distribution_null_features"`
	CountFlightsByMonth          []LabeledCount `json:"count_flights_by_month"`

	TopLandingRegions    []RegionCount `json:"top_landing_regions"`
	BottomLandingRegions []RegionCount `json:"bottom_landing_regions"`
	TopTakeoffRegions    []RegionCount `json:"top_takeoff_regions"`
	BottomTakeoffRegions []RegionCount `json:"bottom_takeoff_regions"`
}
