package mysql

const upsertPlaceSQL = `
INSERT INTO places
  (place_id, sheet, query, name, premise, street_name, street_number, city, postcode,
   phone, lat, lng, opening_hours_known, hours, raw)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  sheet               = VALUES(sheet),
  query               = VALUES(query),
  name                = VALUES(name),
  premise             = VALUES(premise),
  street_name         = VALUES(street_name),
  street_number       = VALUES(street_number),
  city                = VALUES(city),
  postcode            = VALUES(postcode),
  phone               = VALUES(phone),
  lat                 = VALUES(lat),
  lng                 = VALUES(lng),
  opening_hours_known = VALUES(opening_hours_known),
  hours               = VALUES(hours),
  raw                 = COALESCE(VALUES(raw), places.raw),
  updated_at          = CURRENT_TIMESTAMP
`

// query_hash keeps the unique key short; the full query is stored alongside.
const insertMissSQL = `
INSERT INTO lookup_misses (sheet, query_hash, query, http_status, reason)
VALUES (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  http_status = VALUES(http_status),
  reason      = VALUES(reason),
  seen_at     = CURRENT_TIMESTAMP
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const placeColumns = `
  place_id, sheet, query, name, premise, street_name, street_number, city, postcode,
  phone, lat, lng, opening_hours_known, hours
`

const getPlaceSQL = `SELECT` + placeColumns + `FROM places WHERE place_id = ?`

const listPlacesSQL = `SELECT` + placeColumns + `FROM places
WHERE (? IS NULL OR sheet = ?)
ORDER BY updated_at DESC, place_id
LIMIT ?`
