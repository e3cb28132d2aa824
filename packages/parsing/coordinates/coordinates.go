package coordinates

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type Coordinate struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lon float64 `bson:"lon" json:"lon"`
}

// Токен: группа широты и группа долготы подряд, например 5545N03737E или 554530С0373715В.
// С и В - кириллические обозначения северной широты и восточной долготы.
var tokenRe = regexp.MustCompile(`^(\d+[NSС])(\d+[EWВ])`)

var hemisphereAliases = strings.NewReplacer("С", "N", "В", "E")

// Decode переводит токен градусы/минуты/секунды в десятичные градусы.
// Для пустого или некорректного токена возвращает nil.
func Decode(token string) *Coordinate {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}

	m := tokenRe.FindStringSubmatch(token)
	if m == nil {
		return nil
	}

	lat, ok := parseDMS(hemisphereAliases.Replace(m[1]))
	if !ok || lat < -90 || lat > 90 {
		return nil
	}
	lon, ok := parseDMS(hemisphereAliases.Replace(m[2]))
	if !ok || lon < -180 || lon > 180 {
		return nil
	}

	return &Coordinate{Lat: lat, Lon: lon}
}

// parseDMS разбирает одну группу: 2 цифры градусов для N/S, 3 для E/W,
// затем необязательные минуты и секунды по 2 цифры.
func parseDMS(part string) (float64, bool) {
	hemisphere := part[len(part)-1]
	digits := part[:len(part)-1]

	degLen := 3
	if hemisphere == 'N' || hemisphere == 'S' {
		degLen = 2
	}
	if len(digits) < degLen {
		degLen = len(digits)
	}

	d, err := strconv.Atoi(digits[:degLen])
	if err != nil {
		return 0, false
	}

	var m, s int
	if len(digits) >= degLen+2 {
		m, _ = strconv.Atoi(digits[degLen : degLen+2])
	}
	if len(digits) >= degLen+4 {
		s, _ = strconv.Atoi(digits[degLen+2 : degLen+4])
	}
	if m >= 60 || s >= 60 {
		return 0, false
	}

	value := float64(d) + float64(m)/60.0 + float64(s)/3600.0
	if hemisphere == 'S' || hemisphere == 'W' {
		value = -value
	}
	return value, true
}

// Round округляет значение до заданного числа знаков после запятой
func Round(value float64, places int32) float64 {
	return decimal.NewFromFloat(value).Round(places).InexactFloat64()
}

// Rounded возвращает копию координаты, округленную до places знаков
func (c Coordinate) Rounded(places int32) Coordinate {
	return Coordinate{Lat: Round(c.Lat, places), Lon: Round(c.Lon, places)}
}
