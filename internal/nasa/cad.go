package nasa

import "strconv"

// CloseApproachQuery holds the close-approach filters. Zero-valued fields are
// left out of the request; use NewCloseApproachQuery for the service
// defaults.
type CloseApproachQuery struct {
	// DateMin excludes data earlier than this date. Now, Calendar or
	// Timestamp.
	DateMin DateSpec
	// DateMax excludes data later than this date. RelativeDays(D) means D days
	// after DateMin.
	DateMax DateSpec

	// DistMin and DistMax bound the approach distance. au by default, "LD"
	// suffix for lunar distances. See DistanceAU and DistanceLD.
	DistMin string
	DistMax string

	// H (absolute magnitude) bounds.
	HMin *float64
	HMax *float64

	// V-infinity bounds, km/s.
	VInfMin *float64
	VInfMax *float64

	// V-relative bounds, km/s.
	VRelMin *float64
	VRelMax *float64

	// OrbitClass limits data to the given orbit class (sent as "class").
	OrbitClass string

	PHA      bool
	NEA      bool
	Comet    bool
	NEAComet bool
	NEO      bool

	// Kind is one of a, an, au, c, cn, cu, n, u.
	Kind string
	SPK  string
	Des  string
	// Body is the close-approach body; "ALL" or "*" for all bodies.
	Body string
	// Sort is date, dist, dist-min, v-inf, v-rel, h or object; a leading "-"
	// sorts descending.
	Sort string

	Limit *int

	// Fullname includes the formatted full designation.
	Fullname bool
}

// NewCloseApproachQuery returns a query with the service defaults:
// approaches within 0.05 au of Earth over the next 60 days, sorted by date.
func NewCloseApproachQuery() CloseApproachQuery {
	return CloseApproachQuery{
		DateMin: Now(),
		DateMax: RelativeDays(60),
		DistMax: "0.05",
		Body:    "Earth",
		Sort:    "date",
	}
}

// Validate checks the query in a fixed order (date, H bounds, v-inf bounds,
// v-rel bounds, limit) and returns the first violation.
func (q CloseApproachQuery) Validate() error {
	if q.DateMin.kind == dateRelative {
		return dateMinTypeError(nil)
	}

	if err := checkRange(q.HMin, q.HMax, "h_min", "h_max"); err != nil {
		return err
	}
	if err := checkRange(q.VInfMin, q.VInfMax, "v_inf_min", "v_inf_max"); err != nil {
		return err
	}
	if err := checkRange(q.VRelMin, q.VRelMax, "v_rel_min", "v_rel_max"); err != nil {
		return err
	}

	if q.Limit != nil && *q.Limit <= 0 {
		return &InvalidRangeError{Param: "limit", Message: "limit parameter must be greater than 0"}
	}
	return nil
}

// Params validates the query and builds the request parameters using the
// service's hyphenated names.
func (q CloseApproachQuery) Params() (*Params, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	p := NewParams().
		SetDate("date-min", q.DateMin).
		SetDate("date-max", q.DateMax).
		SetString("dist-min", q.DistMin).
		SetString("dist-max", q.DistMax).
		SetFloat("h-min", q.HMin).
		SetFloat("h-max", q.HMax).
		SetFloat("v-inf-min", q.VInfMin).
		SetFloat("v-inf-max", q.VInfMax).
		SetFloat("v-rel-min", q.VRelMin).
		SetFloat("v-rel-max", q.VRelMax).
		SetString("class", q.OrbitClass).
		SetFlag("pha", q.PHA).
		SetFlag("nea", q.NEA).
		SetFlag("comet", q.Comet).
		SetFlag("nea-comet", q.NEAComet).
		SetFlag("neo", q.NEO).
		SetString("kind", q.Kind).
		SetString("spk", q.SPK).
		SetString("des", q.Des).
		SetString("body", q.Body).
		SetString("sort", q.Sort).
		SetInt("limit", q.Limit).
		SetFlag("fullname", q.Fullname)
	return p, nil
}

// DistanceAU renders a distance in astronomical units.
func DistanceAU(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// DistanceLD renders a distance in lunar distances.
func DistanceLD(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "LD"
}

// Float returns a pointer to v, for the optional numeric bounds.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for Limit.
func Int(v int) *int { return &v }

func checkRange(lo, hi *float64, minParam, maxParam string) error {
	if lo != nil && hi != nil && *lo > *hi {
		return rangeError(minParam, maxParam)
	}
	return nil
}

func dateMinTypeError(got any) error {
	return &TypeMismatchError{
		Param: "date_min",
		Message: "date parameter must be a string representing a date in YYYY-MM-DD or YYYY-MM-DDThh:mm:ss " +
			"format, 'now' for the current date, or a time.Time value",
		Got: got,
	}
}
