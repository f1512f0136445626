package catalog

import (
	"math"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// RawRecord is one raw upstream record: a JSON object decoded into an ordered
// field list. Key order is preserved so that pass-through metadata can be
// displayed in the order the provider sent it.
type RawRecord struct {
	keys   []string
	values map[string]jx.Raw
}

// ParseRawRecord decodes a single JSON object into a RawRecord.
func ParseRawRecord(data []byte) (RawRecord, error) {
	rec := RawRecord{values: make(map[string]jx.Raw)}

	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		raw, err := d.Raw()
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		if _, dup := rec.values[key]; !dup {
			rec.keys = append(rec.keys, key)
		}
		rec.values[key] = raw
		return nil
	}); err != nil {
		return RawRecord{}, errors.Wrap(err, "decode record")
	}

	return rec, nil
}

// Keys returns the field names in upstream order.
func (r RawRecord) Keys() []string { return r.keys }

// Get returns the raw JSON value for key.
func (r RawRecord) Get(key string) (jx.Raw, bool) {
	raw, ok := r.values[key]
	return raw, ok
}

// Str returns the value for key if it is a JSON string.
func (r RawRecord) Str(key string) (string, bool) {
	raw, ok := r.values[key]
	if !ok || raw.Type() != jx.String {
		return "", false
	}
	s, err := jx.DecodeBytes(raw).Str()
	if err != nil {
		return "", false
	}
	return s, true
}

// Text returns the value for key rendered as display text: strings verbatim,
// numbers and booleans via their JSON representation. Used for identifiers
// that some generations send as numbers.
func (r RawRecord) Text(key string) (string, bool) {
	raw, ok := r.values[key]
	if !ok {
		return "", false
	}
	return rawText(raw)
}

func rawText(raw jx.Raw) (string, bool) {
	switch raw.Type() {
	case jx.String:
		s, err := jx.DecodeBytes(raw).Str()
		if err != nil {
			return "", false
		}
		return s, true
	case jx.Number, jx.Bool:
		return strings.TrimSpace(raw.String()), true
	default:
		return "", false
	}
}

// Number returns the value for key as a float64. It accepts a JSON number or
// a numeric string; anything else, or a non-finite result, reports false.
func (r RawRecord) Number(key string) (float64, bool) {
	raw, ok := r.values[key]
	if !ok {
		return 0, false
	}
	return rawNumber(raw)
}

// Decimal is like Number but parses into a decimal without a float round trip.
func (r RawRecord) Decimal(key string) (decimal.Decimal, bool) {
	raw, ok := r.values[key]
	if !ok {
		return decimal.Decimal{}, false
	}
	return rawDecimal(raw)
}

// Object returns the value for key decoded as a nested RawRecord.
func (r RawRecord) Object(key string) (RawRecord, bool) {
	raw, ok := r.values[key]
	if !ok || raw.Type() != jx.Object {
		return RawRecord{}, false
	}
	rec, err := ParseRawRecord(raw)
	if err != nil {
		return RawRecord{}, false
	}
	return rec, true
}

// Array returns the value for key as a slice of raw JSON elements.
func (r RawRecord) Array(key string) ([]jx.Raw, bool) {
	raw, ok := r.values[key]
	if !ok || raw.Type() != jx.Array {
		return nil, false
	}

	var elems []jx.Raw
	d := jx.DecodeBytes(raw)
	if err := d.Arr(func(d *jx.Decoder) error {
		e, err := d.Raw()
		if err != nil {
			return err
		}
		elems = append(elems, e)
		return nil
	}); err != nil {
		return nil, false
	}
	return elems, true
}

func rawNumber(raw jx.Raw) (float64, bool) {
	var text string
	switch raw.Type() {
	case jx.Number:
		text = strings.TrimSpace(raw.String())
	case jx.String:
		s, err := jx.DecodeBytes(raw).Str()
		if err != nil {
			return 0, false
		}
		text = strings.TrimSpace(s)
	default:
		return 0, false
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func rawDecimal(raw jx.Raw) (decimal.Decimal, bool) {
	if _, ok := rawNumber(raw); !ok {
		return decimal.Decimal{}, false
	}

	var text string
	switch raw.Type() {
	case jx.Number:
		text = strings.TrimSpace(raw.String())
	case jx.String:
		s, err := jx.DecodeBytes(raw).Str()
		if err != nil {
			return decimal.Decimal{}, false
		}
		text = strings.TrimSpace(s)
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// decodeValue generically decodes a raw JSON value for raw-metadata
// pass-through. Nested objects lose key order; only the top-level mapping
// order is part of the display contract.
func decodeValue(raw jx.Raw) any {
	d := jx.DecodeBytes(raw)
	switch raw.Type() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return nil
		}
		return s
	case jx.Number:
		f, err := d.Float64()
		if err != nil {
			return nil
		}
		return f
	case jx.Bool:
		b, err := d.Bool()
		if err != nil {
			return nil
		}
		return b
	case jx.Null:
		return nil
	case jx.Object:
		m := make(map[string]any)
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			raw, err := d.Raw()
			if err != nil {
				return err
			}
			m[key] = decodeValue(raw)
			return nil
		}); err != nil {
			return nil
		}
		return m
	case jx.Array:
		var vals []any
		if err := d.Arr(func(d *jx.Decoder) error {
			raw, err := d.Raw()
			if err != nil {
				return err
			}
			vals = append(vals, decodeValue(raw))
			return nil
		}); err != nil {
			return nil
		}
		return vals
	default:
		return nil
	}
}
