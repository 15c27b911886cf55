package seed

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Simplici0/ringvirkning/internal/tenant"
)

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Run upserts the tenant catalog in an idempotent way. Rows whose stored content
// already matches are left untouched and not counted.
func Run(db *sql.DB, tenants []tenant.Tenant) (Stats, error) {
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}
	for _, t := range tenants {
		if err := upsertTenant(tx, t, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func upsertTenant(tx *sql.Tx, t tenant.Tenant, stats *Stats) error {
	inputJSON, configJSON, err := tenant.Encode(t)
	if err != nil {
		return err
	}

	var name, kind, storedInput, storedConfig string
	err = tx.QueryRow(`
		SELECT name, kind, input_json, config_json
		FROM tenants
		WHERE id = ?
	`, t.ID).Scan(&name, &kind, &storedInput, &storedConfig)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.Exec(`
			INSERT INTO tenants (id, name, kind, input_json, config_json)
			VALUES (?, ?, ?, ?, ?)
		`, t.ID, t.Name, t.Kind, inputJSON, configJSON); err != nil {
			return fmt.Errorf("insert tenant %q: %w", t.ID, err)
		}
		stats.Inserts++
		return nil
	case err != nil:
		return fmt.Errorf("check tenant %q existence: %w", t.ID, err)
	}

	if name == t.Name && kind == t.Kind && storedInput == inputJSON && storedConfig == configJSON {
		return nil
	}

	if _, err := tx.Exec(`
		UPDATE tenants
		SET name = ?, kind = ?, input_json = ?, config_json = ?,
		    updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE id = ?
	`, t.Name, t.Kind, inputJSON, configJSON, t.ID); err != nil {
		return fmt.Errorf("update tenant %q: %w", t.ID, err)
	}
	stats.Updates++
	return nil
}
