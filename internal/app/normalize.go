package app

import (
	"fmt"

	"place_enricher/internal/domain"
)

// component tags in match priority; a component is assigned to the first tag it carries.
var componentTags = []string{"route", "street_number", "premise", "postal_town", "postal_code"}

// Normalize maps a raw place-details result into a domain.Place.
// A nil record means no place was found and yields (nil, nil).
// Missing coordinates are a structural error; every other field is optional.
func Normalize(raw map[string]any) (*domain.Place, error) {
	if raw == nil {
		return nil, nil
	}

	lat, okLat := lookupFloat(raw, "geometry.location.lat")
	lng, okLng := lookupFloat(raw, "geometry.location.lng")
	if !okLat || !okLng {
		return nil, fmt.Errorf("normalize %q: %w", deref(optStr(raw, "place_id")), domain.ErrMissingGeometry)
	}

	p := &domain.Place{
		PlaceID: deref(optStr(raw, "place_id")),
		Name:    deref(optStr(raw, "name")),
		Phone:   deref(optStr(raw, "formatted_phone_number")),
		Lat:     lat,
		Lng:     lng,
	}

	applyComponents(p, raw["address_components"])
	applyOpeningHours(p, raw)
	return p, nil
}

func optStr(m map[string]any, path string) *string {
	if s, ok := lookupStr(m, path); ok {
		return &s
	}
	return nil
}

// applyComponents: same-category collisions are last-write-wins.
func applyComponents(p *domain.Place, v any) {
	for _, comp := range objects(v) {
		name := optStr(comp, "long_name")
		if name == nil {
			continue
		}
		switch firstTag(stringSet(comp["types"])) {
		case "route":
			p.StreetName = name
		case "street_number":
			p.StreetNumber = name
		case "premise":
			p.Premise = name
		case "postal_town":
			p.City = name
		case "postal_code":
			p.Postcode = name
		}
	}
}

// firstTag returns the highest-priority known tag in types, or "".
func firstTag(types map[string]struct{}) string {
	for _, tag := range componentTags {
		if _, ok := types[tag]; ok {
			return tag
		}
	}
	return ""
}

func applyOpeningHours(p *domain.Place, raw map[string]any) {
	oh, ok := raw["opening_hours"].(map[string]any)
	if !ok {
		return
	}
	p.OpeningHoursKnown = true

	for _, period := range objects(oh["periods"]) {
		if day, hhmm, ok := periodEntry(period, "open"); ok {
			p.Hours[day].Open = &hhmm
		}
		if day, hhmm, ok := periodEntry(period, "close"); ok {
			p.Hours[day].Close = &hhmm
		}
	}
}

// periodEntry resolves one open/close sub-entry. Entries with a missing or
// out-of-range day, or a malformed time, are skipped.
func periodEntry(period map[string]any, key string) (int, string, bool) {
	entry, ok := period[key].(map[string]any)
	if !ok {
		return 0, "", false
	}
	day, ok := lookupIndex(entry, "day")
	if !ok || day < 0 || day >= len(domain.Weekdays) {
		return 0, "", false
	}
	t, ok := lookupStr(entry, "time")
	if !ok {
		return 0, "", false
	}
	hhmm, ok := FormatTime(t)
	if !ok {
		return 0, "", false
	}
	return day, hhmm, true
}

// FormatTime inserts a colon into a 4-digit "HHMM" string. It is structural:
// the digits are not validated as a clock time.
func FormatTime(s string) (string, bool) {
	if len(s) != 4 {
		return "", false
	}
	for i := 0; i < 4; i++ {
		if s[i] < '0' || s[i] > '9' {
			return "", false
		}
	}
	return s[:2] + ":" + s[2:], true
}
