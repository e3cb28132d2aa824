package datetime

import (
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// Date календарная дата без времени и часового пояса
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Clock время суток
type Clock struct {
	Hour   int
	Minute int
	Second int
}

// ParseDate разбирает дату телеграммы в формате ГГММДД.
// Год двузначный: 00-68 -> 20xx, 69-99 -> 19xx. Несуществующая дата -> nil.
func ParseDate(s string) *Date {
	if len(s) != 6 {
		return nil
	}
	t, err := time.Parse("060102", s)
	if err != nil {
		return nil
	}
	d := DateOf(t)
	return &d
}

// ParseClock разбирает время телеграммы в формате ЧЧММ.
// 2400 читается как 23:59.
func ParseClock(s string) *Clock {
	if len(s) != 4 {
		return nil
	}
	if s == "2400" {
		s = "2359"
	}
	t, err := time.Parse("1504", s)
	if err != nil {
		return nil
	}
	c := ClockOf(t)
	return &c
}

// ParseISODate разбирает дату вида 2006-01-02
func ParseISODate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// ParseISOClock разбирает время вида 15:04:05
func ParseISOClock(s string) (Clock, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return ClockOf(t), nil
}

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func ClockOf(t time.Time) Clock {
	return Clock{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

// Combine объединяет дату и время в момент UTC
func Combine(d Date, c Clock) time.Time {
	return time.Date(d.Year, d.Month, d.Day, c.Hour, c.Minute, c.Second, 0, time.UTC)
}

func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

func (d Date) Before(o Date) bool {
	return d.Time().Before(o.Time())
}

func (d Date) After(o Date) bool {
	return d.Time().After(o.Time())
}

func (d Date) String() string {
	return d.Time().Format(dateLayout)
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseISODate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Clock) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseISOClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// В MongoDB дата и время хранятся строками ISO: такие строки сравниваются
// лексикографически в правильном порядке, что нужно для фильтра по периоду.

func (d Date) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(d.String())
}

func (d *Date) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	s, ok := bson.RawValue{Type: t, Value: data}.StringValueOK()
	if !ok {
		return fmt.Errorf("date: unexpected bson type %s", t)
	}
	parsed, err := ParseISODate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (c Clock) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(c.String())
}

func (c *Clock) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	s, ok := bson.RawValue{Type: t, Value: data}.StringValueOK()
	if !ok {
		return fmt.Errorf("time: unexpected bson type %s", t)
	}
	parsed, err := ParseISOClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// WeekdayLabels - подписи дней недели, с понедельника
var WeekdayLabels = [7]string{"Пн", "Вт", "Ср", "Чт", "Пт", "Сб", "Вс"}

// WeekdayIndex номер дня недели с понедельника (0) по воскресенье (6)
func (d Date) WeekdayIndex() int {
	return (int(d.Weekday()) + 6) % 7
}

func (d Date) WeekdayLabel() string {
	return WeekdayLabels[d.WeekdayIndex()]
}
