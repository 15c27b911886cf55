package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
)

// List returns the stored catalog ordered by name.
func List(ctx context.Context, db *sql.DB) ([]Tenant, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, kind, input_json, config_json
		FROM tenants
		ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query tenants: %w", err)
	}
	defer rows.Close()

	var out []Tenant
	for rows.Next() {
		t, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenants: %w", err)
	}
	return out, nil
}

// Get returns one stored tenant or ErrNotFound.
func Get(ctx context.Context, db *sql.DB, id string) (Tenant, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, name, kind, input_json, config_json
		FROM tenants
		WHERE id = ?
	`, id)
	t, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Tenant{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return t, err
}

// Encode returns the JSON column values stored for t.
func Encode(t Tenant) (inputJSON, configJSON string, err error) {
	in, err := json.Marshal(t.Input)
	if err != nil {
		return "", "", fmt.Errorf("encode tenant input: %w", err)
	}
	cfg, err := json.Marshal(t.Config)
	if err != nil {
		return "", "", fmt.Errorf("encode tenant config: %w", err)
	}
	return string(in), string(cfg), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (Tenant, error) {
	var (
		t                     Tenant
		inputJSON, configJSON string
	)
	if err := s.Scan(&t.ID, &t.Name, &t.Kind, &inputJSON, &configJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Tenant{}, err
		}
		return Tenant{}, fmt.Errorf("scan tenant: %w", err)
	}
	if err := json.Unmarshal([]byte(inputJSON), &t.Input); err != nil {
		return Tenant{}, fmt.Errorf("decode tenant %q input: %w", t.ID, err)
	}
	if err := json.Unmarshal([]byte(configJSON), &t.Config); err != nil {
		return Tenant{}, fmt.Errorf("decode tenant %q config: %w", t.ID, err)
	}
	return t, nil
}
