package parsing

import (
	"regexp"
	"strconv"
	"strings"

	"droneanalytics/packages/parsing/datetime"
)

// Telegram - поля одной телеграммы (SHR, DEP или ARR).
// Отсутствующее поле остается пустым, извлечение никогда не завершается ошибкой.
type Telegram struct {
	RawText         string
	SID             string
	AircraftType    string
	Quantity        int
	Zone            string
	Date            *datetime.Date
	Time            *datetime.Clock
	CoordinateToken string
	Aerodrome       string
	Operator        string

	// Только для плана полета (SHR): точки DEP/ и DEST/
	DepartureToken   string
	DestinationToken string
}

const dms = `\d+[NSС]\d+[EWВ]`

var (
	// План полета, столбец SHR
	shrSID      = regexp.MustCompile(`SID/([0-9]+)`)
	shrType     = regexp.MustCompile(`TYP/[0-9]*([a-zA-Z]+)`)
	shrQuantity = regexp.MustCompile(`TYP/([0-9]+)`)
	shrZone     = regexp.MustCompile(`/ZONA\s+([^/\s]+)`)
	shrZoneDMS  = regexp.MustCompile(`(` + dms + `)`)
	shrDOF      = regexp.MustCompile(`DOF/([0-9]{6})`)
	shrDep      = regexp.MustCompile(`DEP/(` + dms + `)`)
	shrDest     = regexp.MustCompile(`DEST/(` + dms + `)`)
	shrOperator = regexp.MustCompile(`OPR/(.+?)\s*(?:[A-Z]{3,4}/|\)|\n|$)`)

	// Вылет, столбец DEP
	depSID       = regexp.MustCompile(`-SID\s+([0-9]+)`)
	depDate      = regexp.MustCompile(`ADD\s([0-9]{6})`)
	depTime      = regexp.MustCompile(`ATD\s([0-9]{4})`)
	depAerodrome = regexp.MustCompile(`-ADEP\s+([A-Z0-9]+)`)
	depCoord     = regexp.MustCompile(`ADEPZ\s(` + dms + `)`)

	// Посадка, столбец ARR
	arrSID       = regexp.MustCompile(`-SID\s+([0-9]+)`)
	arrDate      = regexp.MustCompile(`ADA\s([0-9]{6})`)
	arrTime      = regexp.MustCompile(`ATA\s([0-9]{4})`)
	arrAerodrome = regexp.MustCompile(`-ADARR\s+([A-Z0-9]+)`)
	arrCoord     = regexp.MustCompile(`ADARRZ\s(` + dms + `)`)
)

// Первая группа первого совпадения или пустая строка
func extractData(re *regexp.Regexp, rawText string) string {
	if matches := re.FindStringSubmatch(rawText); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	return ""
}

// ParsePlan разбирает план полета (столбец SHR)
func ParsePlan(rawText string) Telegram {
	shr := Telegram{RawText: rawText}

	shr.SID = extractData(shrSID, rawText)
	shr.AircraftType = extractData(shrType, rawText)
	if q, err := strconv.Atoi(extractData(shrQuantity, rawText)); err == nil {
		shr.Quantity = q
	}

	// Зона: сначала явный тег, затем первая точка в формате DMS
	shr.Zone = extractData(shrZone, rawText)
	if shr.Zone == "" {
		shr.Zone = extractData(shrZoneDMS, rawText)
	}

	shr.Date = datetime.ParseDate(extractData(shrDOF, rawText))
	shr.DepartureToken = extractData(shrDep, rawText)
	shr.DestinationToken = extractData(shrDest, rawText)
	shr.Operator = extractData(shrOperator, rawText)

	return shr
}

// ParseDeparture разбирает телеграмму вылета (столбец DEP)
func ParseDeparture(rawText string) Telegram {
	return Telegram{
		RawText:         rawText,
		SID:             extractData(depSID, rawText),
		Date:            datetime.ParseDate(extractData(depDate, rawText)),
		Time:            datetime.ParseClock(extractData(depTime, rawText)),
		Aerodrome:       extractData(depAerodrome, rawText),
		CoordinateToken: extractData(depCoord, rawText),
	}
}

// ParseArrival разбирает телеграмму посадки (столбец ARR)
func ParseArrival(rawText string) Telegram {
	return Telegram{
		RawText:         rawText,
		SID:             extractData(arrSID, rawText),
		Date:            datetime.ParseDate(extractData(arrDate, rawText)),
		Time:            datetime.ParseClock(extractData(arrTime, rawText)),
		Aerodrome:       extractData(arrAerodrome, rawText),
		CoordinateToken: extractData(arrCoord, rawText),
	}
}
