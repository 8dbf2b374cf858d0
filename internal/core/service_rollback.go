package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/JonMunkholm/shipbatch/internal/store"
)

// RollbackResult reports what a rollback removed.
type RollbackResult struct {
	ImportID       string `json:"importId"`
	FileName       string `json:"fileName"`
	RecordsDeleted int    `json:"recordsDeleted"`
	RecordsMissing int    `json:"recordsMissing"` // deleted or cleared since the commit
}

// RollbackImport deletes the records stored by a committed import and marks
// its history entry as rolled back.
// Returns ErrImportNotFound for an unknown id and ErrAlreadyRolledBack when
// the import was rolled back before.
func (s *Service) RollbackImport(ctx context.Context, importID string) (RollbackResult, error) {
	result := RollbackResult{ImportID: importID}

	key, entry, err := s.findImport(ctx, importID)
	if err != nil {
		return result, fmt.Errorf("rollback import %s: %w", importID, err)
	}
	result.FileName = entry.FileName
	if entry.RolledBackAt != nil {
		return result, fmt.Errorf("rollback import %s: %w", importID, ErrAlreadyRolledBack)
	}

	deleted, missing, err := s.deleteRecords(ctx, entry.RecordIDs)
	result.RecordsDeleted = deleted
	result.RecordsMissing = missing
	if err != nil {
		return result, fmt.Errorf("rollback import %s: %w", importID, err)
	}

	now := s.now()
	entry.RolledBackAt = &now
	data, err := json.Marshal(entry)
	if err == nil {
		err = s.store.Put(ctx, key, data)
	}
	if err != nil {
		// records are already gone; only the marker is lost
		s.logger.Warn("rollback not recorded in history", "import_id", importID, "error", err)
	}

	s.logger.Info("import rolled back",
		"import_id", importID,
		"file", entry.FileName,
		"deleted", deleted,
		"missing", missing,
	)
	return result, nil
}

// deleteRecords removes the given records. Ids that no longer exist are
// counted as missing rather than failing.
func (s *Service) deleteRecords(ctx context.Context, ids []int64) (deleted, missing int, err error) {
	for _, id := range ids {
		err := s.store.Delete(ctx, recordKey(id))
		switch {
		case err == nil:
			deleted++
		case errors.Is(err, store.ErrNotFound):
			missing++
		default:
			return deleted, missing, fmt.Errorf("delete shipment %d: %w", id, err)
		}
	}
	return deleted, missing, nil
}
