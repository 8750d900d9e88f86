package sheet

import (
	"strconv"
	"strings"

	"place_enricher/internal/domain"
)

const (
	ColName         = "NAME"
	ColAddress1     = "ADDRESS1"
	ColAddress2     = "ADDRESS2"
	ColAddress3     = "ADDRESS3"
	ColPostcode     = "POSTCODE"
	ColCity         = "CITY"
	ColPhone        = "PHONE_PRIMARY"
	ColLat          = "LAT"
	ColLng          = "LNG"
	ColOpeningHours = "OPENING_HOURS"
)

// queryColumns are concatenated, in order, into the search text.
var queryColumns = []string{ColName, ColAddress1, ColAddress2, ColAddress3, ColPostcode, ColCity}

func openCol(day int) string  { return strings.ToUpper(domain.DayKeys[day]) + "_OPEN" }
func closeCol(day int) string { return strings.ToUpper(domain.DayKeys[day]) + "_CLOSE" }

// OutputColumns lists every column Apply may write.
func OutputColumns() []string {
	cols := []string{
		ColName, ColAddress1, ColAddress2, ColAddress3, ColPostcode, ColCity,
		ColPhone, ColLat, ColLng, ColOpeningHours,
	}
	for d := range domain.DayKeys {
		cols = append(cols, openCol(d), closeCol(d))
	}
	return cols
}

// BuildQuery joins the identifying cells of a row. Blank and "nan" cells are skipped.
func BuildQuery(r Row) string {
	parts := make([]string, 0, len(queryColumns))
	for _, c := range queryColumns {
		v := r.Get(c)
		if v == "" || strings.EqualFold(v, "nan") {
			continue
		}
		parts = append(parts, v)
	}
	return strings.Join(parts, " ")
}

// Apply writes a normalized place into a row. Absent fields leave the
// existing cells untouched; coordinates and OPENING_HOURS are always written.
func Apply(r Row, p *domain.Place) {
	if p == nil {
		return
	}
	if p.Name != "" {
		r.Set(ColName, p.Name)
	}
	if l1, l2, ok := p.AddressLines(); ok {
		r.Set(ColAddress1, l1)
		r.Set(ColAddress2, l2)
		r.Clear(ColAddress3)
	}
	if p.City != nil && *p.City != "" {
		r.Set(ColCity, *p.City)
	}
	if p.Postcode != nil && *p.Postcode != "" {
		r.Set(ColPostcode, *p.Postcode)
	}
	if p.Phone != "" {
		r.Set(ColPhone, p.Phone)
	}

	r.Set(ColLat, strconv.FormatFloat(p.Lat, 'f', -1, 64))
	r.Set(ColLng, strconv.FormatFloat(p.Lng, 'f', -1, 64))
	r.Set(ColOpeningHours, strconv.FormatBool(p.OpeningHoursKnown))

	for d, h := range p.Hours {
		if h.Open != nil {
			r.Set(openCol(d), *h.Open)
		}
		if h.Close != nil {
			r.Set(closeCol(d), *h.Close)
		}
	}
}
