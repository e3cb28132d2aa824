package datetime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestParseDate(t *testing.T) {
	d := ParseDate("250131")
	require.NotNil(t, d)
	assert.Equal(t, Date{Year: 2025, Month: time.January, Day: 31}, *d)
	assert.Equal(t, "2025-01-31", d.String())
	assert.Equal(t, time.Friday, d.Weekday())

	for _, s := range []string{"", "2501", "250230", "251301", "abcdef", "2501311"} {
		assert.Nil(t, ParseDate(s), s)
	}
}

func TestParseClock(t *testing.T) {
	c := ParseClock("0705")
	require.NotNil(t, c)
	assert.Equal(t, Clock{Hour: 7, Minute: 5}, *c)
	assert.Equal(t, "07:05:00", c.String())

	midnight := ParseClock("2400")
	require.NotNil(t, midnight)
	assert.Equal(t, Clock{Hour: 23, Minute: 59}, *midnight)

	for _, s := range []string{"", "700", "2460", "2500", "ab12"} {
		assert.Nil(t, ParseClock(s), s)
	}
}

func TestCombine(t *testing.T) {
	got := Combine(Date{Year: 2025, Month: time.January, Day: 1}, Clock{Hour: 23, Minute: 50})
	assert.Equal(t, time.Date(2025, 1, 1, 23, 50, 0, 0, time.UTC), got)
}

func TestJSONRoundTrip(t *testing.T) {
	type doc struct {
		Date  *Date  `json:"date"`
		Clock *Clock `json:"time"`
		Empty *Date  `json:"empty"`
	}
	in := doc{Date: &Date{Year: 2024, Month: time.March, Day: 9}, Clock: &Clock{Hour: 13, Minute: 7, Second: 1}}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-03-09","time":"13:07:01","empty":null}`, string(data))

	var out doc
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestBSONRoundTrip(t *testing.T) {
	type doc struct {
		Date  *Date  `bson:"date"`
		Clock *Clock `bson:"time"`
		Empty *Clock `bson:"empty"`
	}
	in := doc{Date: &Date{Year: 2025, Month: time.July, Day: 14}, Clock: &Clock{Hour: 0, Minute: 10}}

	data, err := bson.Marshal(in)
	require.NoError(t, err)

	raw := bson.Raw(data)
	assert.Equal(t, "2025-07-14", raw.Lookup("date").StringValue())
	assert.Equal(t, "00:10:00", raw.Lookup("time").StringValue())

	var out doc
	require.NoError(t, bson.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestWeekdayLabel(t *testing.T) {
	monday := Date{Year: 2025, Month: time.January, Day: 6}
	sunday := Date{Year: 2025, Month: time.January, Day: 12}

	assert.Equal(t, 0, monday.WeekdayIndex())
	assert.Equal(t, "Пн", monday.WeekdayLabel())
	assert.Equal(t, 6, sunday.WeekdayIndex())
	assert.Equal(t, "Вс", sunday.WeekdayLabel())
}
