package mysql

import (
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"place_enricher/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func valJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func nullStr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) UpsertPlace(ctx context.Context, p domain.PlaceRecord) error {
	if p.PlaceID == "" {
		return errors.New("upsert place: empty place_id")
	}
	hours, err := json.Marshal(p.HoursMap())
	if err != nil {
		return fmt.Errorf("upsert place %s: %w", p.PlaceID, err)
	}
	_, err = r.db.ExecContext(ctx, upsertPlaceSQL,
		p.PlaceID,
		p.Sheet,
		p.Query,
		p.Name,
		valStr(p.Premise),
		valStr(p.StreetName),
		valStr(p.StreetNumber),
		valStr(p.City),
		valStr(p.Postcode),
		p.Phone,
		p.Lat,
		p.Lng,
		p.OpeningHoursKnown,
		string(hours),
		valJSON(p.RawJSON),
	)
	if err != nil {
		return fmt.Errorf("upsert place %s: %w", p.PlaceID, err)
	}
	return nil
}

func (r *Repo) LogMiss(ctx context.Context, sheet, query string, status int, reason string) error {
	sum := sha1.Sum([]byte(query))
	_, err := r.db.ExecContext(ctx, insertMissSQL, sheet, hex.EncodeToString(sum[:]), query, status, reason)
	return err
}

func (r *Repo) GetPlace(ctx context.Context, placeID string) (domain.PlaceView, error) {
	rec, err := scanPlace(r.db.QueryRowContext(ctx, getPlaceSQL, placeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.PlaceView{}, domain.ErrNotFound
		}
		return domain.PlaceView{}, err
	}
	return rec.View(), nil
}

func (r *Repo) ListPlaces(ctx context.Context, q domain.PlacesQuery) (domain.PlacesPage, error) {
	rows, err := r.db.QueryContext(ctx, listPlacesSQL, valStr(q.Sheet), valStr(q.Sheet), q.Limit)
	if err != nil {
		return domain.PlacesPage{}, err
	}
	defer rows.Close()

	out := make([]domain.PlaceView, 0, q.Limit)
	for rows.Next() {
		rec, err := scanPlace(rows)
		if err != nil {
			return domain.PlacesPage{}, err
		}
		out = append(out, rec.View())
	}
	if err := rows.Err(); err != nil {
		return domain.PlacesPage{}, err
	}
	return domain.PlacesPage{Items: out}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlace(s scanner) (domain.PlaceRecord, error) {
	var rec domain.PlaceRecord
	var premise, street, number, city, postcode sql.NullString
	var hoursJSON []byte

	if err := s.Scan(
		&rec.PlaceID,
		&rec.Sheet,
		&rec.Query,
		&rec.Name,
		&premise, &street, &number, &city, &postcode,
		&rec.Phone,
		&rec.Lat, &rec.Lng,
		&rec.OpeningHoursKnown,
		&hoursJSON,
	); err != nil {
		return domain.PlaceRecord{}, err
	}
	rec.Premise = nullStr(premise)
	rec.StreetName = nullStr(street)
	rec.StreetNumber = nullStr(number)
	rec.City = nullStr(city)
	rec.Postcode = nullStr(postcode)

	if len(hoursJSON) > 0 {
		var hours map[string]string
		if err := json.Unmarshal(hoursJSON, &hours); err != nil {
			return domain.PlaceRecord{}, fmt.Errorf("decode hours for %s: %w", rec.PlaceID, err)
		}
		rec.SetHoursMap(hours)
	}
	return rec, nil
}
