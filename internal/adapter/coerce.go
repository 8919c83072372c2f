package adapter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitesync/internal/record"
	"git.home.luguber.info/inful/sitesync/internal/schema"
)

// Date layouts accepted from sources, tried in order. A bare calendar date
// yields a date-only value so emitted output stays `YYYY-MM-DD`.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

const dateOnlyLayout = "2006-01-02"

// CoerceValue converts a duck-typed source value into the typed value a
// field declares. Sources hand us whatever their wire format produced
// (YAML scalars, JSON numbers, feed timestamps); this is the single place
// that narrows those onto the closed value set. Rule checks (enum
// membership, patterns) are the validator's job, not done here.
func CoerceValue(def schema.FieldDef, raw any) (record.Value, error) {
	switch def.Type {
	case schema.TypeString, schema.TypeEnum:
		s, err := coerceString(raw)
		if err != nil {
			return record.Value{}, fieldErr(def, err)
		}
		return record.String(s), nil

	case schema.TypeReference:
		s, err := coerceString(raw)
		if err != nil {
			return record.Value{}, fieldErr(def, err)
		}
		return record.Reference(s), nil

	case schema.TypeNumber:
		n, err := coerceNumber(raw)
		if err != nil {
			return record.Value{}, fieldErr(def, err)
		}
		return record.Number(n), nil

	case schema.TypeDate:
		v, err := coerceDate(raw)
		if err != nil {
			return record.Value{}, fieldErr(def, err)
		}
		return v, nil

	case schema.TypeStringList:
		items, err := coerceStringList(raw)
		if err != nil {
			return record.Value{}, fieldErr(def, err)
		}
		return record.List(items...), nil

	case schema.TypeObject:
		obj, err := coerceObject(raw)
		if err != nil {
			return record.Value{}, fieldErr(def, err)
		}
		return obj, nil

	default:
		return record.Value{}, fieldErr(def, fmt.Errorf("unsupported field type %q", def.Type))
	}
}

func fieldErr(def schema.FieldDef, err error) error {
	return fmt.Errorf("field %q: %w", def.Name, err)
}

func coerceString(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("cannot use %T as string", raw)
	}
}

func coerceNumber(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot parse %q as number", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("cannot use %T as number", raw)
	}
}

func coerceDate(raw any) (record.Value, error) {
	switch v := raw.(type) {
	case time.Time:
		return timeValue(v), nil
	case *time.Time:
		if v == nil {
			return record.Value{}, fmt.Errorf("nil timestamp")
		}
		return timeValue(*v), nil
	case string:
		s := strings.TrimSpace(v)
		if t, err := time.Parse(dateOnlyLayout, s); err == nil {
			return record.DateOnly(t), nil
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return record.Date(t), nil
			}
		}
		return record.Value{}, fmt.Errorf("cannot parse %q as date", v)
	default:
		return record.Value{}, fmt.Errorf("cannot use %T as date", raw)
	}
}

// timeValue keeps calendar dates date-only. YAML hands a bare date to us
// as midnight UTC, and emitting those as full timestamps would change the
// site-data shape for every hand-written document.
func timeValue(t time.Time) record.Value {
	u := t.UTC()
	if u.Hour() == 0 && u.Minute() == 0 && u.Second() == 0 && u.Nanosecond() == 0 {
		return record.DateOnly(u)
	}
	return record.Date(u)
}

func coerceStringList(raw any) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			s, err := coerceString(item)
			if err != nil {
				return nil, err
			}
			items = append(items, s)
		}
		return items, nil
	case string:
		// A bare scalar where a list is declared is common in hand
		// written front matter; treat it as a one-element list.
		return []string{v}, nil
	default:
		return nil, fmt.Errorf("cannot use %T as string list", raw)
	}
}

func coerceObject(raw any) (record.Value, error) {
	m, ok := normalizeMap(raw)
	if !ok {
		return record.Value{}, fmt.Errorf("cannot use %T as object", raw)
	}
	fields := make(map[string]record.Value, len(m))
	for k, v := range m {
		val, err := coerceAny(v)
		if err != nil {
			return record.Value{}, fmt.Errorf("key %q: %w", k, err)
		}
		fields[k] = val
	}
	return record.Object(fields), nil
}

// coerceAny maps an untyped nested value onto the closest typed value.
func coerceAny(raw any) (record.Value, error) {
	switch v := raw.(type) {
	case string:
		return record.String(v), nil
	case bool:
		return record.String(strconv.FormatBool(v)), nil
	case int, int64, uint64, float32, float64:
		n, err := coerceNumber(v)
		if err != nil {
			return record.Value{}, err
		}
		return record.Number(n), nil
	case time.Time:
		return timeValue(v), nil
	case []any:
		items, err := coerceStringList(v)
		if err != nil {
			return record.Value{}, err
		}
		return record.List(items...), nil
	case []string:
		return record.List(v...), nil
	default:
		if _, ok := normalizeMap(raw); ok {
			return coerceObject(raw)
		}
		return record.Value{}, fmt.Errorf("unsupported nested value %T", raw)
	}
}

func normalizeMap(raw any) (map[string]any, bool) {
	switch v := raw.(type) {
	case map[string]any:
		return v, true
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}
