package domain

// Weekday names indexed by the provider's day-index (0=Sunday..6=Saturday).
var Weekdays = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// DayKeys are the short field prefixes, same order as Weekdays.
var DayKeys = [7]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

type DayHours struct {
	Open  *string // "HH:MM"
	Close *string
}

// Place is the normalized result of one place-details lookup.
// Name and Phone are "" when the provider has none; pointer fields are nil when absent.
type Place struct {
	PlaceID      string
	Name         string
	Premise      *string
	StreetName   *string
	StreetNumber *string
	City         *string
	Postcode     *string
	Phone        string
	Lat, Lng     float64

	Hours             [7]DayHours // indexed like Weekdays
	OpeningHoursKnown bool
}

// Fields flattens the place into the fixed output schema.
// Absent values are nil.
func (p *Place) Fields() map[string]any {
	out := map[string]any{
		"name":                p.Name,
		"premise":             strOrNil(p.Premise),
		"street_name":         strOrNil(p.StreetName),
		"street_number":       strOrNil(p.StreetNumber),
		"city":                strOrNil(p.City),
		"postcode":            strOrNil(p.Postcode),
		"phone":               p.Phone,
		"lat":                 p.Lat,
		"lng":                 p.Lng,
		"opening_hours_known": p.OpeningHoursKnown,
	}
	for i, day := range DayKeys {
		out[day+"_open"] = strOrNil(p.Hours[i].Open)
		out[day+"_close"] = strOrNil(p.Hours[i].Close)
	}
	return out
}

func strOrNil(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

// PlaceRecord is a stored enrichment result.
type PlaceRecord struct {
	Place
	Sheet   string
	Query   string
	RawJSON []byte // details payload as returned by the provider
}

// AddressLines composes the first and second address lines.
// Empty premise or street values count as absent. ok is false when neither
// is known; callers then leave their address fields untouched.
func (p *Place) AddressLines() (line1, line2 string, ok bool) {
	premise, street := nonEmpty(p.Premise), nonEmpty(p.StreetName)
	if street != "" {
		if n := nonEmpty(p.StreetNumber); n != "" {
			street = n + " " + street
		}
	}
	switch {
	case premise != "":
		return premise, street, true
	case street != "":
		return street, "", true
	}
	return "", "", false
}

func nonEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// HoursMap returns the known opening times keyed like "mon_open".
func (p *Place) HoursMap() map[string]string {
	out := make(map[string]string, 14)
	for i, day := range DayKeys {
		if h := p.Hours[i].Open; h != nil {
			out[day+"_open"] = *h
		}
		if h := p.Hours[i].Close; h != nil {
			out[day+"_close"] = *h
		}
	}
	return out
}

// SetHoursMap is the inverse of HoursMap; unknown keys are ignored.
func (p *Place) SetHoursMap(m map[string]string) {
	for i, day := range DayKeys {
		if v, ok := m[day+"_open"]; ok {
			v := v
			p.Hours[i].Open = &v
		}
		if v, ok := m[day+"_close"]; ok {
			v := v
			p.Hours[i].Close = &v
		}
	}
}

// View builds the read model for a stored record.
func (r PlaceRecord) View() PlaceView {
	v := PlaceView{
		PlaceID:           r.PlaceID,
		Sheet:             r.Sheet,
		Name:              r.Name,
		City:              r.City,
		Postcode:          r.Postcode,
		Phone:             r.Phone,
		Coords:            Coords{Lat: r.Lat, Lng: r.Lng},
		OpeningHoursKnown: r.OpeningHoursKnown,
	}
	if l1, l2, ok := r.AddressLines(); ok {
		v.AddressLines = []string{l1}
		if l2 != "" {
			v.AddressLines = append(v.AddressLines, l2)
		}
	}
	if h := r.HoursMap(); len(h) > 0 {
		v.Hours = h
	}
	return v
}
