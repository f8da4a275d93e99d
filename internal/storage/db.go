package storage

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"sitestock/internal"
)

// DB is the local sqlite mirror of the remote catalog plus the audit trail of
// committed import sessions. The mirror is a cache: the remote API stays the
// source of truth and the cache can be dropped and refilled at any time.
type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS materials (
  materialId TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  unitName TEXT NOT NULL,
  categoryName TEXT NOT NULL,
  categoryId TEXT NOT NULL,
  unitId TEXT NOT NULL,
  position INTEGER NOT NULL,
  lastSeenAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_materials_name ON materials(name);
CREATE INDEX IF NOT EXISTS idx_materials_categoryId ON materials(categoryId);

CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS units (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS constructions (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS import_sessions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  constructionId TEXT NOT NULL,
  source TEXT NOT NULL,
  itemCount INTEGER NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS committed_items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  sessionId INTEGER NOT NULL,
  materialId TEXT NOT NULL,
  extractedName TEXT,
  name TEXT NOT NULL,
  quantityValue REAL NOT NULL,
  FOREIGN KEY(sessionId) REFERENCES import_sessions(id)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// ReplaceMaterials swaps the cached material list wholesale. Position keeps
// the catalog's ordering so list views render it unchanged.
func (d *DB) ReplaceMaterials(materials []internal.Material) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM materials`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
INSERT INTO materials (materialId, name, unitName, categoryName, categoryId, unitId, position, lastSeenAt)
VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, m := range materials {
		if _, err := stmt.Exec(m.MaterialID, m.Name, m.UnitName, m.CategoryName, m.CategoryID, m.UnitID, i); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListMaterials() ([]internal.Material, error) {
	rows, err := d.conn.Query(`
SELECT materialId, name, unitName, categoryName, categoryId, unitId
FROM materials ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Material
	for rows.Next() {
		var m internal.Material
		if err := rows.Scan(&m.MaterialID, &m.Name, &m.UnitName, &m.CategoryName, &m.CategoryID, &m.UnitID); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (d *DB) ReplaceCategories(categories []internal.Category) error {
	return d.replaceNamed("categories", func(stmt *sql.Stmt) error {
		for _, c := range categories {
			if _, err := stmt.Exec(c.ID, c.Name); err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *DB) ListCategories() ([]internal.Category, error) {
	rows, err := d.conn.Query(`SELECT id, name FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Category
	for rows.Next() {
		var c internal.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (d *DB) ReplaceUnits(units []internal.Unit) error {
	return d.replaceNamed("units", func(stmt *sql.Stmt) error {
		for _, u := range units {
			if _, err := stmt.Exec(u.ID, u.Name); err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *DB) ListUnits() ([]internal.Unit, error) {
	rows, err := d.conn.Query(`SELECT id, name FROM units ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Unit
	for rows.Next() {
		var u internal.Unit
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (d *DB) ReplaceConstructions(constructions []internal.Construction) error {
	return d.replaceNamed("constructions", func(stmt *sql.Stmt) error {
		for _, c := range constructions {
			if _, err := stmt.Exec(c.ID, c.Name); err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *DB) ListConstructions() ([]internal.Construction, error) {
	rows, err := d.conn.Query(`SELECT id, name FROM constructions ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Construction
	for rows.Next() {
		var c internal.Construction
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (d *DB) replaceNamed(table string, insert func(*sql.Stmt) error) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO ` + table + ` (id, name) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	if err := insert(stmt); err != nil {
		return err
	}
	return tx.Commit()
}

// ClearCatalog drops the cached catalog tables and their freshness stamps.
func (d *DB) ClearCatalog() error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"materials", "categories", "units", "constructions"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`DELETE FROM metadata WHERE key LIKE 'catalog.%'`); err != nil {
		return err
	}
	return tx.Commit()
}

// RecordImportSession writes one committed import and its items in a single
// transaction and returns the session id.
func (d *DB) RecordImportSession(constructionID, source string, items []internal.CommittedItem) (int64, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.Exec(`
INSERT INTO import_sessions (constructionId, source, itemCount) VALUES (?, ?, ?)
`, constructionID, source, len(items))
	if err != nil {
		return 0, err
	}
	sessionID, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`
INSERT INTO committed_items (sessionId, materialId, extractedName, name, quantityValue)
VALUES (?, ?, ?, ?, ?)
`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, item := range items {
		if _, err := stmt.Exec(sessionID, item.MaterialID, item.ExtractedName, item.Name, item.QuantityValue); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return sessionID, nil
}

func (d *DB) ListImportSessions(limit int) ([]internal.ImportSession, error) {
	rows, err := d.conn.Query(`
SELECT id, constructionId, source, itemCount, createdAt
FROM import_sessions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ImportSession
	for rows.Next() {
		var s internal.ImportSession
		if err := rows.Scan(&s.ID, &s.ConstructionID, &s.Source, &s.ItemCount, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (d *DB) ListCommittedItems(sessionID int) ([]internal.CommittedItem, error) {
	rows, err := d.conn.Query(`
SELECT materialId, extractedName, name, quantityValue
FROM committed_items WHERE sessionId = ? ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.CommittedItem
	for rows.Next() {
		var item internal.CommittedItem
		if err := rows.Scan(&item.MaterialID, &item.ExtractedName, &item.Name, &item.QuantityValue); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
