package domain

import (
	"bytes"
	"strconv"
)

// FloatField is an optional float parsed from a feed payload. Feeds send
// numeric fields as either JSON numbers or quoted strings; anything that
// fails to parse leaves the field unset rather than failing the message.
type FloatField struct {
	Value float64
	Valid bool
}

func (f *FloatField) UnmarshalJSON(data []byte) error {
	f.Value, f.Valid = 0, false

	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return nil
	}
	f.Value, f.Valid = v, true
	return nil
}

// Float returns a set FloatField, mainly for building ticks in tests.
func Float(v float64) FloatField {
	return FloatField{Value: v, Valid: true}
}

// Tick is one parsed price update from the streaming feed. Every field is
// optional: a flush merge only touches the fields the tick carried.
type Tick struct {
	Price       FloatField
	ChangePct   FloatField
	ChangeAbs   FloatField
	Volume      FloatField
	QuoteVolume FloatField
}

// HasData reports whether the tick carries at least one usable field.
func (t Tick) HasData() bool {
	return t.Price.Valid || t.ChangePct.Valid || t.ChangeAbs.Valid ||
		t.Volume.Valid || t.QuoteVolume.Valid
}
