package result

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/kdbai-mcp/internal/domain/schema"
	"github.com/kailas-cloud/kdbai-mcp/internal/domain/temporal"
)

var epoch = time.Unix(0, 0).UTC()

// Normalize turns a raw result into transport-safe records:
//   - columns in indexed (vector index columns) are dropped,
//   - array-valued cells become plain []any sequences,
//   - duration-typed columns become the time of day of epoch + duration.
//
// Row order is preserved.
func Normalize(raw Raw, indexed map[string]struct{}) []Record {
	durations := make(map[string]bool, len(raw.Columns))
	for _, c := range raw.Columns {
		if schema.IsDuration(c.Type) {
			durations[c.Name] = true
		}
	}

	if !raw.IsTabular() {
		out := make([]Record, 0, len(raw.Records))
		for _, rec := range raw.Records {
			keys := sortedKeys(rec, raw.Columns)
			r := NewRecord(len(keys))
			for _, k := range keys {
				if _, skip := indexed[k]; skip {
					continue
				}
				r.Set(k, normalizeCell(rec[k], durations[k]))
			}
			out = append(out, r)
		}
		return out
	}

	type keep struct {
		idx      int
		name     string
		duration bool
	}
	cols := make([]keep, 0, len(raw.Columns))
	for i, c := range raw.Columns {
		if _, skip := indexed[c.Name]; skip {
			continue
		}
		cols = append(cols, keep{idx: i, name: c.Name, duration: durations[c.Name]})
	}

	out := make([]Record, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		r := NewRecord(len(cols))
		for _, c := range cols {
			var v any
			if c.idx < len(row) {
				v = row[c.idx]
			}
			r.Set(c.name, normalizeCell(v, c.duration))
		}
		out = append(out, r)
	}
	return out
}

func normalizeCell(v any, duration bool) any {
	if duration {
		if v == nil {
			return nil
		}
		d, err := ToDuration(v)
		if err != nil {
			return flatten(v)
		}
		return temporal.TimeOfDayOf(epoch.Add(d))
	}
	return flatten(v)
}

// flatten converts typed arrays and slices (e.g. embeddings decoded as
// []float32) to plain []any, recursively.
func flatten(v any) any {
	switch t := v.(type) {
	case nil, string:
		return v
	case []any:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = flatten(el)
		}
		return out
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return v
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = flatten(rv.Index(i).Interface())
	}
	return out
}

var errDuration = errors.New("not a duration")

// ToDuration decodes a duration cell. Accepted encodings: time.Duration,
// integer or float nanoseconds, json.Number nanoseconds, q timespans
// ("0D03:30:00.000000000") and Go duration strings ("3h30m").
func ToDuration(v any) (time.Duration, error) {
	switch d := v.(type) {
	case time.Duration:
		return d, nil
	case int:
		return time.Duration(d), nil
	case int32:
		return time.Duration(d), nil
	case int64:
		return time.Duration(d), nil
	case float64:
		return time.Duration(d), nil
	case json.Number:
		if n, err := d.Int64(); err == nil {
			return time.Duration(n), nil
		}
		f, err := d.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q", errDuration, d)
		}
		return time.Duration(f), nil
	case string:
		if strings.Contains(d, "D") {
			return parseTimespan(d)
		}
		if n, err := strconv.ParseInt(d, 10, 64); err == nil {
			return time.Duration(n), nil
		}
		pd, err := time.ParseDuration(d)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", errDuration, d)
		}
		return pd, nil
	default:
		return 0, fmt.Errorf("%w: %T", errDuration, v)
	}
}

// parseTimespan parses the q timespan form [-]dDhh:mm:ss[.nnnnnnnnn].
func parseTimespan(s string) (time.Duration, error) {
	neg := strings.HasPrefix(s, "-")
	body := strings.TrimPrefix(s, "-")

	daysPart, clock, ok := strings.Cut(body, "D")
	if !ok {
		return 0, fmt.Errorf("%w: %q", errDuration, s)
	}
	days, err := strconv.Atoi(daysPart)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errDuration, s)
	}

	clock, frac, _ := strings.Cut(clock, ".")
	parts := strings.Split(clock, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", errDuration, s)
	}
	var hms [3]int
	for i, p := range parts {
		if hms[i], err = strconv.Atoi(p); err != nil {
			return 0, fmt.Errorf("%w: %q", errDuration, s)
		}
	}

	var nanos int
	if frac != "" {
		if len(frac) > 9 {
			frac = frac[:9]
		}
		frac += strings.Repeat("0", 9-len(frac))
		if nanos, err = strconv.Atoi(frac); err != nil {
			return 0, fmt.Errorf("%w: %q", errDuration, s)
		}
	}

	d := time.Duration(days)*24*time.Hour +
		time.Duration(hms[0])*time.Hour +
		time.Duration(hms[1])*time.Minute +
		time.Duration(hms[2])*time.Second +
		time.Duration(nanos)
	if neg {
		d = -d
	}
	return d, nil
}
