package store

import (
	"context"
	"database/sql"
	"strings"

	"git.home.luguber.info/inful/steptimer/internal/foundation/errors"
	"git.home.luguber.info/inful/steptimer/internal/timer"
)

// AddFolder creates a folder and returns its id.
func (s *Store) AddFolder(ctx context.Context, name string) (int64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, errors.ValidationError("folder name is required").Build()
	}
	res, err := s.db.ExecContext(ctx, "INSERT INTO folders (name) VALUES (?)", name)
	if err != nil {
		return 0, storeErr("insert folder", "folders", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr("read folder id", "folders", err)
	}
	return id, nil
}

// GetFolder loads folder id.
func (s *Store) GetFolder(ctx context.Context, id int64) (timer.Folder, error) {
	var f timer.Folder
	err := s.db.QueryRowContext(ctx, "SELECT id, name FROM folders WHERE id = ?", id).Scan(&f.ID, &f.Name)
	if isNoRows(err) {
		return f, notFound("folders", id)
	}
	if err != nil {
		return f, storeErr("query folder", "folders", err)
	}
	return f, nil
}

// Folders lists every folder, ordered by id.
func (s *Store) Folders(ctx context.Context) ([]timer.Folder, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM folders ORDER BY id")
	if err != nil {
		return nil, storeErr("query folders", "folders", err)
	}
	defer rows.Close()

	var folders []timer.Folder
	for rows.Next() {
		var f timer.Folder
		if err := rows.Scan(&f.ID, &f.Name); err != nil {
			return nil, storeErr("scan folder", "folders", err)
		}
		folders = append(folders, f)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate folders", "folders", err)
	}
	return folders, nil
}

// RenameFolder renames folder id.
func (s *Store) RenameFolder(ctx context.Context, id int64, name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.ValidationError("folder name is required").Build()
	}
	res, err := s.db.ExecContext(ctx, "UPDATE folders SET name = ? WHERE id = ?", name, id)
	if err != nil {
		return storeErr("rename folder", "folders", err)
	}
	return checkAffected(res, "folders", id)
}

// DeleteFolder deletes folder id and moves its timers to the trash. The default and trash
// folders cannot be deleted.
func (s *Store) DeleteFolder(ctx context.Context, id int64) error {
	if id == timer.DefaultFolderID || id == timer.TrashFolderID {
		return errors.ValidationError("built-in folders cannot be deleted").WithContext("id", id).Build()
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM folders WHERE id = ?", id)
		if err != nil {
			return storeErr("delete folder", "folders", err)
		}
		if err := checkAffected(res, "folders", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "UPDATE timers SET folder_id = ? WHERE folder_id = ?", timer.TrashFolderID, id); err != nil {
			return storeErr("trash folder timers", "timers", err)
		}
		return nil
	})
}
