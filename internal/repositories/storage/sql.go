package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/KirkDiggler/rpg-compendium/internal/entities/compendium"
	"github.com/KirkDiggler/rpg-compendium/internal/errors"
	"github.com/KirkDiggler/rpg-compendium/internal/sqldb"
)

// Owner types for rows in random_tables. Race trait tables are stored on the
// trait row itself.
const (
	OwnerSpell = "spell"
	OwnerItem  = "item"
)

const (
	deleteTablesSQL = `DELETE FROM random_tables WHERE owner_type = ? AND owner_id = ?`
	insertTableSQL  = `INSERT INTO random_tables
		(owner_type, owner_id, position, table_name, dice_type, columns_json, rows_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	selectTablesSQL = `SELECT table_name, dice_type, columns_json, rows_json
		FROM random_tables WHERE owner_type = ? AND owner_id = ? ORDER BY position`
)

// ReplaceTables deletes every table owned by (ownerType, ownerID) and
// inserts tables in order. Run it inside the owner's transaction.
func ReplaceTables(
	ctx context.Context,
	q sqldb.Querier,
	ownerType, ownerID string,
	tables []compendium.ParsedTable,
) error {
	if _, err := q.Exec(ctx, deleteTablesSQL, ownerType, ownerID); err != nil {
		return errors.Wrapf(err, "failed to delete %s tables", ownerType)
	}

	for i, table := range tables {
		columns, err := json.Marshal(table.Columns)
		if err != nil {
			return errors.Wrapf(err, "failed to marshal columns of table %q", table.TableName)
		}
		rows, err := json.Marshal(table.Rows)
		if err != nil {
			return errors.Wrapf(err, "failed to marshal rows of table %q", table.TableName)
		}
		if _, err := q.Exec(ctx, insertTableSQL,
			ownerType, ownerID, i, table.TableName, table.DiceType, string(columns), string(rows),
		); err != nil {
			return errors.Wrapf(err, "failed to insert table %q", table.TableName)
		}
	}
	return nil
}

// LoadTables reads the tables owned by (ownerType, ownerID) in order
func LoadTables(ctx context.Context, q sqldb.Querier, ownerType, ownerID string) ([]compendium.ParsedTable, error) {
	rows, err := q.Query(ctx, selectTablesSQL, ownerType, ownerID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query %s tables", ownerType)
	}
	defer func() { _ = rows.Close() }()

	var tables []compendium.ParsedTable
	for rows.Next() {
		var (
			table         compendium.ParsedTable
			columns, body string
		)
		if err := rows.Scan(&table.TableName, &table.DiceType, &columns, &body); err != nil {
			return nil, errors.Wrap(err, "failed to scan table")
		}
		if err := json.Unmarshal([]byte(columns), &table.Columns); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal table columns")
		}
		if err := json.Unmarshal([]byte(body), &table.Rows); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal table rows")
		}
		tables = append(tables, table)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate tables")
	}
	return tables, nil
}

// JSONColumn marshals v for a TEXT column
func JSONColumn(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal json column")
	}
	return string(data), nil
}

// ScanJSON unmarshals a TEXT column written by JSONColumn
func ScanJSON(raw string, dest any) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return errors.Wrap(err, "failed to unmarshal json column")
	}
	return nil
}

// CitationArgs flattens a citation into its four columns
func CitationArgs(c compendium.SourceCitation) []any {
	return []any{c.Title, c.Code, c.Page, string(c.Status)}
}

// CitationDest collects the four citation columns during a Scan
type CitationDest struct {
	Title  string
	Code   sql.NullString
	Page   sql.NullInt64
	Status string
}

// Targets returns the scan destinations in column order
func (d *CitationDest) Targets() []any {
	return []any{&d.Title, &d.Code, &d.Page, &d.Status}
}

// Citation builds the scanned citation
func (d *CitationDest) Citation() compendium.SourceCitation {
	c := compendium.SourceCitation{Title: d.Title, Status: compendium.CitationStatus(d.Status)}
	if d.Code.Valid {
		code := d.Code.String
		c.Code = &code
	}
	if d.Page.Valid {
		page := int(d.Page.Int64)
		c.Page = &page
	}
	return c
}

// Nanos converts a timestamp for the BIGINT columns
func Nanos(t time.Time) int64 {
	return t.UnixNano()
}

// FromNanos converts a BIGINT column back to UTC time
func FromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
