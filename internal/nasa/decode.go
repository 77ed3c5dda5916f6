package nasa

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// rawKeys lists the accepted keys of QueryFromMap.
var rawKeys = map[string]struct{}{
	"date_min": {}, "date_max": {}, "dist_min": {}, "dist_max": {},
	"h_min": {}, "h_max": {}, "v_inf_min": {}, "v_inf_max": {},
	"v_rel_min": {}, "v_rel_max": {}, "orbit_class": {},
	"pha": {}, "nea": {}, "comet": {}, "nea_comet": {}, "neo": {},
	"kind": {}, "spk": {}, "des": {}, "body": {}, "sort": {},
	"limit": {}, "fullname": {},
}

// QueryFromMap builds a CloseApproachQuery from untyped values keyed by the
// underscored parameter names (date_min, h_max, orbit_class, ...), as they
// arrive from YAML or JSON. Keys not present keep the defaults of
// NewCloseApproachQuery; a nil value clears an optional parameter.
//
// Checks run in the same order as Validate, with the runtime type checks
// added: date_min must be a string or time.Time, numeric bounds must be
// numbers, limit must be integral and the flags must be booleans.
func QueryFromMap(raw map[string]any) (CloseApproachQuery, error) {
	q := NewCloseApproachQuery()

	var unknown []string
	for k := range raw {
		if _, ok := rawKeys[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return q, fmt.Errorf("unknown close-approach parameters: %s", strings.Join(unknown, ", "))
	}

	if v, ok := raw["date_min"]; ok {
		switch d := v.(type) {
		case string:
			if d == "now" {
				q.DateMin = Now()
			} else {
				q.DateMin = Calendar(d)
			}
		case time.Time:
			q.DateMin = Timestamp(d)
		default:
			return q, dateMinTypeError(v)
		}
	}

	if v, ok := raw["date_max"]; ok {
		switch d := v.(type) {
		case nil:
			q.DateMax = DateSpec{}
		case string:
			q.DateMax = ParseDateSpec(d)
		case time.Time:
			q.DateMax = Timestamp(d)
		case int:
			// YAML reads an unquoted +60 as the integer 60.
			q.DateMax = RelativeDays(d)
		default:
			q.DateMax = Calendar(fmt.Sprint(d))
		}
	}

	q.DistMin = passthrough(raw, "dist_min", q.DistMin)
	q.DistMax = passthrough(raw, "dist_max", q.DistMax)

	var err error
	for _, b := range []struct {
		min, max       string
		minDst, maxDst **float64
	}{
		{"h_min", "h_max", &q.HMin, &q.HMax},
		{"v_inf_min", "v_inf_max", &q.VInfMin, &q.VInfMax},
		{"v_rel_min", "v_rel_max", &q.VRelMin, &q.VRelMax},
	} {
		if *b.minDst, err = rawFloat(raw, b.min); err != nil {
			return q, err
		}
		if *b.maxDst, err = rawFloat(raw, b.max); err != nil {
			return q, err
		}
		if err := checkRange(*b.minDst, *b.maxDst, b.min, b.max); err != nil {
			return q, err
		}
	}

	if q.Limit, err = rawLimit(raw); err != nil {
		return q, err
	}

	for _, f := range []struct {
		name string
		dst  *bool
	}{
		{"pha", &q.PHA},
		{"nea", &q.NEA},
		{"comet", &q.Comet},
		{"nea_comet", &q.NEAComet},
		{"neo", &q.NEO},
		{"fullname", &q.Fullname},
	} {
		v, ok := raw[f.name]
		if !ok {
			continue
		}
		b, isBool := v.(bool)
		if !isBool {
			return q, boolFlagError(f.name, v)
		}
		*f.dst = b
	}

	q.OrbitClass = passthrough(raw, "orbit_class", q.OrbitClass)
	q.Kind = passthrough(raw, "kind", q.Kind)
	q.SPK = passthrough(raw, "spk", q.SPK)
	q.Des = passthrough(raw, "des", q.Des)
	q.Body = passthrough(raw, "body", q.Body)
	q.Sort = passthrough(raw, "sort", q.Sort)

	return q, q.Validate()
}

func passthrough(raw map[string]any, key, def string) string {
	v, ok := raw[key]
	if !ok {
		return def
	}
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return DistanceAU(s)
	default:
		return fmt.Sprint(s)
	}
}

func rawFloat(raw map[string]any, key string) (*float64, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, nil
	}
	f, ok := toFloat(v)
	if !ok {
		return nil, &TypeMismatchError{
			Param:   key,
			Message: key + " parameter must be a number (if specified)",
			Got:     v,
		}
	}
	return &f, nil
}

func rawLimit(raw map[string]any) (*int, error) {
	v, ok := raw["limit"]
	if !ok || v == nil {
		return nil, nil
	}
	typeErr := &TypeMismatchError{
		Param:   "limit",
		Message: "limit parameter must be an integer (if specified)",
		Got:     v,
	}
	if _, isBool := v.(bool); isBool {
		return nil, typeErr
	}
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) || math.IsInf(f, 0) {
		return nil, typeErr
	}
	if f <= 0 {
		return nil, &InvalidRangeError{Param: "limit", Message: "limit parameter must be greater than 0"}
	}
	// float64(math.MaxInt) rounds up to 2^63, which no int can hold.
	if f >= float64(math.MaxInt) {
		return nil, typeErr
	}
	n := int(f)
	return &n, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, !math.IsNaN(n)
	}
	return 0, false
}
