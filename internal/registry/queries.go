package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"mochapipe/internal/services"
)

const versionColumns = `v.id, p.folder_path, p.name, p.product_type, v.version, v.task, v.source_file, v.dir, v.created_at`

// Versions lists versions matching filter, newest product version last.
func (s *Store) Versions(ctx context.Context, filter VersionFilter) ([]Version, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + versionColumns + ` FROM versions v JOIN products p ON p.id = v.product_id`
	var (
		where []string
		args  []any
	)
	if filter.FolderPath != "" {
		where = append(where, "p.folder_path = ?")
		args = append(args, filter.FolderPath)
	}
	if filter.ProductName != "" {
		where = append(where, "p.name = ?")
		args = append(args, filter.ProductName)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY p.folder_path, p.name, v.version"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var versions []Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// GetVersion returns the version with the given id.
func (s *Store) GetVersion(ctx context.Context, id int64) (Version, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT `+versionColumns+` FROM versions v JOIN products p ON p.id = v.product_id WHERE v.id = ?`, id)
	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Version{}, fmt.Errorf("%w: version %d", services.ErrNotFound, id)
	}
	return v, err
}

// Representations lists the representations of a version.
func (s *Store) Representations(ctx context.Context, versionID int64) ([]Representation, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, version_id, name, ext, files_json, is_sequence, output_name
         FROM representations WHERE version_id = ? ORDER BY id`, versionID)
	if err != nil {
		return nil, fmt.Errorf("list representations: %w", err)
	}
	defer rows.Close()

	var reps []Representation
	for rows.Next() {
		var (
			rep        Representation
			ext        sql.NullString
			filesJSON  string
			outputName sql.NullString
		)
		if err := rows.Scan(&rep.ID, &rep.VersionID, &rep.Name, &ext, &filesJSON, &rep.Sequence, &outputName); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(filesJSON), &rep.Files); err != nil {
			return nil, fmt.Errorf("decode representation files: %w", err)
		}
		rep.Ext = ext.String
		rep.OutputName = outputName.String
		reps = append(reps, rep)
	}
	return reps, rows.Err()
}

// Transfers lists every file copied for a version.
func (s *Store) Transfers(ctx context.Context, versionID int64) ([]Transfer, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, version_id, representation_id, source, destination, digest
         FROM transfers WHERE version_id = ? ORDER BY id`, versionID)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var transfers []Transfer
	for rows.Next() {
		var (
			t      Transfer
			repID  sql.NullInt64
			digest sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.VersionID, &repID, &t.Source, &t.Destination, &digest); err != nil {
			return nil, err
		}
		t.RepresentationID = repID.Int64
		t.Digest = digest.String
		transfers = append(transfers, t)
	}
	return transfers, rows.Err()
}

func scanVersion(scanner interface{ Scan(dest ...any) error }) (Version, error) {
	var (
		v          Version
		task       sql.NullString
		sourceFile sql.NullString
		createdRaw string
	)
	if err := scanner.Scan(&v.ID, &v.FolderPath, &v.ProductName, &v.ProductType, &v.Number, &task, &sourceFile, &v.Dir, &createdRaw); err != nil {
		return Version{}, err
	}
	v.Task = task.String
	v.SourceFile = sourceFile.String
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		v.CreatedAt = created
	}
	return v, nil
}
