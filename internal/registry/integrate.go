package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mochapipe/internal/fileutil"
	"mochapipe/internal/services"
)

// ErrVersionExists rejects an explicit version number that is already taken.
var ErrVersionExists = fmt.Errorf("%w: version already registered", services.ErrValidation)

// NextVersion returns the number the next integration of the product gets.
func (s *Store) NextVersion(ctx context.Context, folderPath, productName string) (int, error) {
	ctx = ensureContext(ctx)
	var latest sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(v.version) FROM versions v
         JOIN products p ON p.id = v.product_id
         WHERE p.folder_path = ? AND p.name = ?`,
		folderPath, productName,
	).Scan(&latest)
	if err != nil {
		return 0, fmt.Errorf("read latest version: %w", err)
	}
	return int(latest.Int64) + 1, nil
}

// Integrate registers req as a new version and copies its files into the
// version directory. Nothing is recorded when a copy fails.
func (s *Store) Integrate(ctx context.Context, req IntegrateRequest) (*Version, error) {
	ctx = ensureContext(ctx)
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var version *Version
	err := retryOnBusy(ctx, func() error {
		v, err := s.integrate(ctx, req)
		version = v
		return err
	})
	if err != nil {
		return nil, err
	}
	return version, nil
}

func validateRequest(req IntegrateRequest) error {
	switch {
	case strings.TrimSpace(req.FolderPath) == "":
		return fmt.Errorf("%w: folder path is required", services.ErrValidation)
	case strings.TrimSpace(req.ProductName) == "":
		return fmt.Errorf("%w: product name is required", services.ErrValidation)
	case len(req.Representations) == 0:
		return fmt.Errorf("%w: %s has no representations", services.ErrValidation, req.ProductName)
	}
	return nil
}

func (s *Store) integrate(ctx context.Context, req IntegrateRequest) (result *Version, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin integrate tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	productID, err := upsertProduct(ctx, tx, req, timestamp)
	if err != nil {
		return nil, err
	}

	var latest sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(version) FROM versions WHERE product_id = ?`, productID).Scan(&latest); err != nil {
		return nil, fmt.Errorf("read latest version: %w", err)
	}
	number := int(latest.Int64) + 1
	if req.Version > 0 {
		if req.Version <= int(latest.Int64) {
			return nil, fmt.Errorf("%w: %s %s", ErrVersionExists, req.ProductName, VersionLabel(req.Version))
		}
		number = req.Version
	}

	dir := s.VersionDir(req.FolderPath, req.ProductName, number)
	res, err := tx.ExecContext(ctx,
		`INSERT INTO versions (product_id, version, task, source_file, dir, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		productID, number, nullableString(req.Task), nullableString(req.SourceFile), dir, timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert version: %w", err)
	}
	versionID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	_, statErr := os.Stat(dir)
	createdDir := errors.Is(statErr, os.ErrNotExist)
	defer func() {
		if err != nil && createdDir {
			_ = os.RemoveAll(dir)
		}
	}()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create version dir: %w", err)
	}

	for _, rep := range req.Representations {
		filesJSON, err := json.Marshal(rep.Files)
		if err != nil {
			return nil, fmt.Errorf("encode representation files: %w", err)
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO representations (version_id, name, ext, files_json, is_sequence, output_name)
             VALUES (?, ?, ?, ?, ?, ?)`,
			versionID, rep.Name, rep.Ext, string(filesJSON), rep.Sequence, nullableString(rep.OutputName),
		)
		if err != nil {
			return nil, fmt.Errorf("insert representation %s: %w", rep.Name, err)
		}
		repID, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		for _, src := range rep.Paths() {
			dst := filepath.Join(dir, filepath.Base(src))
			if err := s.copyAndRecord(ctx, tx, versionID, repID, src, dst); err != nil {
				return nil, err
			}
		}
	}

	for _, transfer := range req.Transfers {
		dst := transfer.Destination
		if !filepath.IsAbs(dst) {
			dst = filepath.Join(dir, dst)
		}
		if err := s.copyAndRecord(ctx, tx, versionID, 0, transfer.Source, dst); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit integrate: %w", err)
	}

	return &Version{
		ID:          versionID,
		FolderPath:  req.FolderPath,
		ProductName: req.ProductName,
		ProductType: req.ProductType,
		Number:      number,
		Task:        req.Task,
		SourceFile:  req.SourceFile,
		Dir:         dir,
		CreatedAt:   now,
	}, nil
}

func upsertProduct(ctx context.Context, tx *sql.Tx, req IntegrateRequest, timestamp string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM products WHERE folder_path = ? AND name = ?`,
		req.FolderPath, req.ProductName,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("find product: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO products (folder_path, name, product_type, created_at) VALUES (?, ?, ?, ?)`,
		req.FolderPath, req.ProductName, req.ProductType, timestamp,
	)
	if err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) copyAndRecord(ctx context.Context, tx *sql.Tx, versionID, repID int64, src, dst string) error {
	var digest string
	if s.verify {
		sum, err := fileutil.CopyFileVerified(src, dst)
		if err != nil {
			return fmt.Errorf("copy %s: %w", src, err)
		}
		digest = sum
	} else if err := fileutil.CopyFile(src, dst); err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}

	var repRef any
	if repID > 0 {
		repRef = repID
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transfers (version_id, representation_id, source, destination, digest)
         VALUES (?, ?, ?, ?, ?)`,
		versionID, repRef, src, dst, nullableString(digest),
	)
	if err != nil {
		return fmt.Errorf("record transfer %s: %w", dst, err)
	}
	return nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
