package parsing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"droneanalytics/packages/parsing/datetime"
)

const (
	planText = "(SHR-ZZZZZ\n-ZZZZ0705\n-M0000/M0005 /ZONA R0,5 5509N03733E/\n-ZZZZ0900\n" +
		"-DEP/5509N03733E DEST/5510N03734E DOF/250201 OPR/ГУ МЧС РОССИИ ПО Г.МОСКВА REG/0267J81 " +
		"TYP/2BLA RMK/МР11608 SID/7772251137)"
	depText = "-TITLE IDEP\n-SID 7772251137\n-ADD 250201\n-ATD 0705\n-ADEP ZZZZ\n-ADEPZ 5509N03733E\n-PAP 0"
	arrText = "-TITLE IARR\n-SID 7772251137\n-ADA 250201\n-ATA 0900\n-ADARR ZZZZ\n-ADARRZ 5510С03734В\n-PAP 0"
)

func TestParsePlan(t *testing.T) {
	shr := ParsePlan(planText)

	assert.Equal(t, "7772251137", shr.SID)
	assert.Equal(t, "BLA", shr.AircraftType)
	assert.Equal(t, 2, shr.Quantity)
	assert.Equal(t, "R0,5", shr.Zone)
	assert.Equal(t, "5509N03733E", shr.DepartureToken)
	assert.Equal(t, "5510N03734E", shr.DestinationToken)
	assert.Equal(t, "ГУ МЧС РОССИИ ПО Г.МОСКВА", shr.Operator)
	require.NotNil(t, shr.Date)
	assert.Equal(t, datetime.Date{Year: 2025, Month: time.February, Day: 1}, *shr.Date)
}

func TestParsePlanZoneFallback(t *testing.T) {
	shr := ParsePlan("(SHR-00725 -ZZZZ0600 -M0000/M0005 5957N02905E -DEP/5957N02905E SID/1)")
	assert.Equal(t, "5957N02905E", shr.Zone)
	assert.Empty(t, shr.AircraftType)
	assert.Zero(t, shr.Quantity)
}

func TestParseDeparture(t *testing.T) {
	dep := ParseDeparture(depText)

	assert.Equal(t, "7772251137", dep.SID)
	assert.Equal(t, "ZZZZ", dep.Aerodrome)
	assert.Equal(t, "5509N03733E", dep.CoordinateToken)
	require.NotNil(t, dep.Date)
	assert.Equal(t, "2025-02-01", dep.Date.String())
	require.NotNil(t, dep.Time)
	assert.Equal(t, datetime.Clock{Hour: 7, Minute: 5}, *dep.Time)
}

func TestParseArrival(t *testing.T) {
	arr := ParseArrival(arrText)

	assert.Equal(t, "7772251137", arr.SID)
	assert.Equal(t, "ZZZZ", arr.Aerodrome)
	assert.Equal(t, "5510С03734В", arr.CoordinateToken)
	require.NotNil(t, arr.Time)
	assert.Equal(t, datetime.Clock{Hour: 9}, *arr.Time)
}

func TestParseToleratesMissingFields(t *testing.T) {
	dep := ParseDeparture("-TITLE IDEP\n-ADD 251399\n-ATD 2400")

	assert.Empty(t, dep.SID)
	assert.Empty(t, dep.CoordinateToken)
	assert.Nil(t, dep.Date, "impossible calendar date")
	require.NotNil(t, dep.Time)
	assert.Equal(t, datetime.Clock{Hour: 23, Minute: 59}, *dep.Time)

	assert.Equal(t, Telegram{}, ParseArrival(""))
	assert.NotPanics(t, func() { ParsePlan("SID/ TYP/ /ZONA DOF/99") })
}
