package nasa

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryFromMap_Empty(t *testing.T) {
	q, err := QueryFromMap(nil)
	require.NoError(t, err)
	assert.Equal(t, NewCloseApproachQuery(), q)
}

func TestQueryFromMap_AllKeys(t *testing.T) {
	q, err := QueryFromMap(map[string]any{
		"date_min":    "2000-01-01",
		"date_max":    "2020-01-01",
		"dist_min":    0.001,
		"dist_max":    "10LD",
		"h_min":       15,
		"h_max":       25.5,
		"v_inf_min":   1,
		"v_inf_max":   2,
		"v_rel_min":   3,
		"v_rel_max":   4,
		"orbit_class": "ATE",
		"pha":         true,
		"nea":         false,
		"comet":       true,
		"nea_comet":   false,
		"neo":         true,
		"kind":        "an",
		"spk":         2000433,
		"des":         "433",
		"body":        "Mars",
		"sort":        "h",
		"limit":       25,
		"fullname":    true,
	})
	require.NoError(t, err)

	assert.Equal(t, "2000-01-01", q.DateMin.String())
	assert.Equal(t, "2020-01-01", q.DateMax.String())
	assert.Equal(t, "0.001", q.DistMin)
	assert.Equal(t, "10LD", q.DistMax)
	assert.Equal(t, 15.0, *q.HMin)
	assert.Equal(t, 25.5, *q.HMax)
	assert.Equal(t, "ATE", q.OrbitClass)
	assert.True(t, q.PHA)
	assert.False(t, q.NEA)
	assert.True(t, q.Comet)
	assert.True(t, q.NEO)
	assert.Equal(t, "2000433", q.SPK)
	assert.Equal(t, "Mars", q.Body)
	assert.Equal(t, 25, *q.Limit)
	assert.True(t, q.Fullname)
}

func TestQueryFromMap_DateMinTypes(t *testing.T) {
	q, err := QueryFromMap(map[string]any{"date_min": "now"})
	require.NoError(t, err)
	assert.True(t, q.DateMin.IsNow())

	ts := time.Date(2023, 7, 4, 12, 30, 0, 0, time.UTC)
	q, err = QueryFromMap(map[string]any{"date_min": ts})
	require.NoError(t, err)
	assert.Equal(t, "2023-07-04T12:30:00", q.DateMin.String())

	for _, bad := range []any{20240101, 3.5, true, nil, []string{"2024"}} {
		_, err := QueryFromMap(map[string]any{"date_min": bad})
		var typeErr *TypeMismatchError
		require.ErrorAs(t, err, &typeErr, "%#v", bad)
		assert.Equal(t, "date_min", typeErr.Param)
	}
}

func TestQueryFromMap_DateMax(t *testing.T) {
	q, err := QueryFromMap(map[string]any{"date_max": "+30"})
	require.NoError(t, err)
	assert.Equal(t, RelativeDays(30), q.DateMax)

	q, err = QueryFromMap(map[string]any{"date_max": 90})
	require.NoError(t, err)
	assert.Equal(t, "+90", q.DateMax.String())

	q, err = QueryFromMap(map[string]any{"date_max": nil})
	require.NoError(t, err)
	assert.True(t, q.DateMax.IsZero())
	p, err := q.Params()
	require.NoError(t, err)
	assert.False(t, p.Has("date-max"))
}

func TestQueryFromMap_NilClearsDefault(t *testing.T) {
	q, err := QueryFromMap(map[string]any{"dist_max": nil, "body": nil})
	require.NoError(t, err)
	p, err := q.Params()
	require.NoError(t, err)
	assert.False(t, p.Has("dist-max"))
	assert.False(t, p.Has("body"))
	assert.True(t, p.Has("sort"))
}

func TestQueryFromMap_Limit(t *testing.T) {
	q, err := QueryFromMap(map[string]any{"limit": 10.0})
	require.NoError(t, err)
	assert.Equal(t, 10, *q.Limit)

	for _, bad := range []any{2.5, "10", true} {
		_, err := QueryFromMap(map[string]any{"limit": bad})
		assert.ErrorIs(t, err, ErrTypeMismatch, "%#v", bad)
	}
	for _, bad := range []any{0, -1, -2.0, -1e20} {
		_, err := QueryFromMap(map[string]any{"limit": bad})
		assert.ErrorIs(t, err, ErrInvalidRange, "%#v", bad)
	}
}

func TestQueryFromMap_LimitOverflow(t *testing.T) {
	for _, huge := range []any{1e20, uint64(1 << 63), float64(math.MaxInt64), uint64(math.MaxUint64)} {
		_, err := QueryFromMap(map[string]any{"limit": huge})
		var typeErr *TypeMismatchError
		require.ErrorAs(t, err, &typeErr, "%#v", huge)
		assert.Equal(t, "limit", typeErr.Param)
		assert.NotErrorIs(t, err, ErrInvalidRange)
	}

	q, err := QueryFromMap(map[string]any{"limit": uint64(1 << 40)})
	require.NoError(t, err)
	assert.Equal(t, 1<<40, *q.Limit)
}

func TestQueryFromMap_BooleanFlags(t *testing.T) {
	for _, flag := range []string{"pha", "nea", "comet", "nea_comet", "neo", "fullname"} {
		for _, bad := range []any{1, "true", "yes", 0.0, nil} {
			_, err := QueryFromMap(map[string]any{flag: bad})
			var typeErr *TypeMismatchError
			require.ErrorAs(t, err, &typeErr, "%s=%#v", flag, bad)
			assert.Equal(t, flag, typeErr.Param)
			assert.Contains(t, err.Error(), flag+" parameter must be a boolean (true or false)")
		}
	}
}

func TestQueryFromMap_NumericBoundTypes(t *testing.T) {
	_, err := QueryFromMap(map[string]any{"h_min": "18"})
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = QueryFromMap(map[string]any{"h_min": 22, "h_max": 18})
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestQueryFromMap_FixedOrder(t *testing.T) {
	raw := map[string]any{
		"date_min":  42,
		"h_min":     30,
		"h_max":     10,
		"v_inf_min": 9,
		"v_inf_max": 1,
		"limit":     "x",
		"pha":       "yes",
	}
	var typeErr *TypeMismatchError
	_, err := QueryFromMap(raw)
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "date_min", typeErr.Param)

	delete(raw, "date_min")
	var rangeErr *InvalidRangeError
	_, err = QueryFromMap(raw)
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, "h_min", rangeErr.Param)

	delete(raw, "h_min")
	_, err = QueryFromMap(raw)
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, "v_inf_min", rangeErr.Param)

	delete(raw, "v_inf_min")
	_, err = QueryFromMap(raw)
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "limit", typeErr.Param)

	delete(raw, "limit")
	_, err = QueryFromMap(raw)
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "pha", typeErr.Param)
}

func TestQueryFromMap_UnknownKey(t *testing.T) {
	_, err := QueryFromMap(map[string]any{"date-min": "now", "planet": "Mars"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date-min, planet")
}
