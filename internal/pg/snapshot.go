package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgconn"

	"oblik/internal/store"
)

// Снапшот — одна таблица на все сущности. Никакого DDL per-entity:
// миграция схем хранилища сознательно вне этой системы.
const snapshotDDL = `CREATE TABLE IF NOT EXISTS oblik_snapshot (
	entity TEXT NOT NULL,
	id     TEXT NOT NULL,
	data   JSONB NOT NULL,
	PRIMARY KEY (entity, id)
)`

// EnsureSchema создаёт таблицу снапшота. Idempotent: duplicate_object /
// duplicate_table игнорируются.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, snapshotDDL); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && (pgErr.Code == "42710" || pgErr.Code == "42P07") {
			log.Printf("snapshot DDL skipped (already exists): %s", strings.TrimSpace(pgErr.Message))
			return nil
		}
		// подстраховка по фразе
		e := strings.ToLower(err.Error())
		if strings.Contains(e, "already exists") || strings.Contains(e, "duplicate") {
			log.Printf("snapshot DDL skipped (already exists): %v", err)
			return nil
		}
		return fmt.Errorf("snapshot DDL failed: %w", err)
	}
	return nil
}

// Save выгружает все записи хранилища в таблицу снапшота (upsert).
func Save(ctx context.Context, db *sql.DB, st *store.Storage) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, row := range st.Dump() {
		payload, err := json.Marshal(row.Data)
		if err != nil {
			return fmt.Errorf("snapshot: marshal %s/%s: %w", row.Entity, row.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO oblik_snapshot (entity, id, data) VALUES ($1, $2, $3)
			 ON CONFLICT (entity, id) DO UPDATE SET data = EXCLUDED.data`,
			row.Entity, row.ID, payload); err != nil {
			return fmt.Errorf("snapshot: save %s/%s: %w", row.Entity, row.ID, err)
		}
	}
	return tx.Commit()
}

// Load восстанавливает записи из снапшота. Записи сущностей, которых нет в
// реестре схем, пропускаются с предупреждением.
func Load(ctx context.Context, db *sql.DB, st *store.Storage) error {
	rows, err := db.QueryContext(ctx, `SELECT entity, id, data FROM oblik_snapshot ORDER BY entity, id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var entity, id string
		var payload []byte
		if err := rows.Scan(&entity, &id, &payload); err != nil {
			return err
		}
		var data map[string]any
		if err := json.Unmarshal(payload, &data); err != nil {
			return fmt.Errorf("snapshot: unmarshal %s/%s: %w", entity, id, err)
		}
		if err := st.Restore(entity, id, data); err != nil {
			log.Printf("snapshot: skipped %s/%s: %v", entity, id, err)
		}
	}
	return rows.Err()
}
