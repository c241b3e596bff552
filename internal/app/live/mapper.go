package live

import (
	"time"

	"github.com/kesherteam/kesher/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ToRecord converts a raw persisted document into its UI-facing Record.
//
// The transform is total: opaque store timestamps become RFC3339 UTC strings,
// and fields that are absent or of an unexpected type degrade to the typed
// default for their kind instead of raising. Fields outside the schema are
// dropped (the UI shape is schema-defined).
func ToRecord(raw bson.M, schema Schema) Record {
	rec := make(Record, len(schema)+1)
	rec["id"] = rawID(raw)
	for field, kind := range schema {
		rec[field] = toUIValue(raw[field], kind)
	}
	return rec
}

// ToDocument converts a partial UI record back into its storage form.
// Only supplied fields are converted: RFC3339 strings of time-kind fields
// become time.Time values, day maps are normalized, string lists coerced.
// Every other present field passes through unchanged, and the "id" key is
// never part of the resulting document.
func ToDocument(partial Record, schema Schema) bson.M {
	doc := make(bson.M, len(partial))
	for field, v := range partial {
		if field == "id" {
			continue
		}
		switch schema[field] {
		case KindTime:
			if s, ok := v.(string); ok {
				if t, err := time.Parse(time.RFC3339, s); err == nil {
					doc[field] = t.UTC()
					continue
				}
			}
			doc[field] = v
		case KindDayMap:
			doc[field] = map[string][]string(toDayMap(v))
		case KindStringList:
			doc[field] = toStringList(v)
		default:
			doc[field] = v
		}
	}
	return doc
}

func rawID(raw bson.M) string {
	switch id := raw["_id"].(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	default:
		return ""
	}
}

func toUIValue(v any, kind FieldKind) any {
	switch kind {
	case KindText:
		s, _ := v.(string)
		return s
	case KindBool:
		b, _ := v.(bool)
		return b
	case KindInt:
		return toInt(v)
	case KindFloat:
		return toFloat(v)
	case KindTime:
		return toISO(v)
	case KindStringList:
		return toStringList(v)
	case KindDayMap:
		return toDayMap(v)
	case KindDocList:
		return toDocList(v)
	default:
		return v
	}
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

// toISO renders any of the store's timestamp representations as an RFC3339
// UTC string, truncated to the second so round-trips stay stable. Absent or
// malformed values degrade to "".
func toISO(v any) string {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC().Truncate(time.Second).Format(time.RFC3339)
	case time.Time:
		return t.UTC().Truncate(time.Second).Format(time.RFC3339)
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed.UTC().Truncate(time.Second).Format(time.RFC3339)
		}
		return ""
	default:
		return ""
	}
}

func toStringList(v any) []string {
	switch list := v.(type) {
	case []string:
		out := make([]string, len(list))
		copy(out, list)
		return out
	case bson.A:
		return anySliceToStrings(list)
	case []any:
		return anySliceToStrings(list)
	default:
		return []string{}
	}
}

func anySliceToStrings(list []any) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func toDayMap(v any) models.Availability {
	switch m := v.(type) {
	case models.Availability:
		return m.Normalize()
	case map[string][]string:
		return models.Availability(m).Normalize()
	case bson.M:
		return anyMapToAvailability(m)
	case map[string]any:
		return anyMapToAvailability(m)
	default:
		return models.NewAvailability()
	}
}

func anyMapToAvailability(m map[string]any) models.Availability {
	a := make(models.Availability, len(m))
	for day, v := range m {
		a[day] = toStringList(v)
	}
	return a.Normalize()
}

// toDocList maps a stored list of sub-documents into flat maps, rendering
// nested identifiers and timestamps in their UI forms.
func toDocList(v any) []map[string]any {
	var list []any
	switch l := v.(type) {
	case bson.A:
		list = l
	case []any:
		list = l
	default:
		return []map[string]any{}
	}

	out := make([]map[string]any, 0, len(list))
	for _, e := range list {
		var sub map[string]any
		switch d := e.(type) {
		case bson.M:
			sub = d
		case map[string]any:
			sub = d
		default:
			continue
		}
		entry := make(map[string]any, len(sub))
		for k, val := range sub {
			switch tv := val.(type) {
			case primitive.ObjectID:
				entry[k] = tv.Hex()
			case primitive.DateTime, time.Time:
				entry[k] = toISO(tv)
			default:
				entry[k] = tv
			}
		}
		out = append(out, entry)
	}
	return out
}
