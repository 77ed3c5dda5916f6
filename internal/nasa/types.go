package nasa

// Record is one close-approach row keyed by field name.
type Record map[string]any

// Image is the APOD image reference together with the metadata the service
// returns alongside it.
type Image struct {
	URL         string `json:"url"`
	HDURL       string `json:"hdurl,omitempty"`
	Title       string `json:"title,omitempty"`
	Explanation string `json:"explanation,omitempty"`
	MediaType   string `json:"media_type,omitempty"`
	Date        string `json:"date,omitempty"`
	Copyright   string `json:"copyright,omitempty"`
}

// Close-approach field names as returned in the "fields" array.
const (
	FieldDes      = "des"
	FieldOrbitID  = "orbit_id"
	FieldJD       = "jd"
	FieldCD       = "cd"
	FieldDist     = "dist"
	FieldDistMin  = "dist_min"
	FieldDistMax  = "dist_max"
	FieldVRel     = "v_rel"
	FieldVInf     = "v_inf"
	FieldTSigmaF  = "t_sigma_f"
	FieldBody     = "body"
	FieldH        = "h"
	FieldFullname = "fullname"
)

func imageFromResult(r map[string]any) *Image {
	if _, ok := r["url"]; !ok {
		return nil
	}
	str := func(k string) string {
		s, _ := r[k].(string)
		return s
	}
	return &Image{
		URL:         str("url"),
		HDURL:       str("hdurl"),
		Title:       str("title"),
		Explanation: str("explanation"),
		MediaType:   str("media_type"),
		Date:        str("date"),
		Copyright:   str("copyright"),
	}
}
