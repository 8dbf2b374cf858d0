package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ImportHistoryEntry records one committed import.
type ImportHistoryEntry struct {
	ID             string       `json:"id"`
	FileName       string       `json:"fileName"`
	Imported       int          `json:"imported"`
	SkippedInvalid int          `json:"skippedInvalid"`
	RecordIDs      []int64      `json:"recordIds"`
	Report         ImportReport `json:"report"`
	IPAddress      string       `json:"ipAddress,omitempty"`
	UserAgent      string       `json:"userAgent,omitempty"`
	AnalyzedAt     time.Time    `json:"analyzedAt"`
	CommittedAt    time.Time    `json:"committedAt"`
	RolledBackAt   *time.Time   `json:"rolledBackAt,omitempty"`
}

// historyKey sorts entries by commit time.
func historyKey(at time.Time, id string) string {
	return historyPrefix + at.UTC().Format("20060102T150405.000000000") + ":" + id
}

// recordImport appends a history entry. History is best effort: a failure is
// logged and does not undo the commit.
func (s *Service) recordImport(ctx context.Context, sess *importSession, result *CommitResult) {
	client := ClientFromContext(ctx)
	entry := ImportHistoryEntry{
		ID:             sess.id,
		FileName:       sess.fileName,
		Imported:       result.Imported,
		SkippedInvalid: result.SkippedInvalid,
		RecordIDs:      result.RecordIDs,
		Report:         sess.report,
		IPAddress:      client.IPAddress,
		UserAgent:      client.UserAgent,
		AnalyzedAt:     sess.created,
		CommittedAt:    s.now(),
	}

	data, err := json.Marshal(entry)
	if err == nil {
		err = s.store.Put(ctx, historyKey(entry.CommittedAt, entry.ID), data)
	}
	if err != nil {
		s.logger.Warn("import history not recorded", "session_id", sess.id, "error", err)
	}
}

// findImport loads the history entry of importID and returns its store key.
func (s *Service) findImport(ctx context.Context, importID string) (string, ImportHistoryEntry, error) {
	var entry ImportHistoryEntry
	if importID == "" {
		return "", entry, ErrImportNotFound
	}
	keys, err := s.store.Keys(ctx, historyPrefix)
	if err != nil {
		return "", entry, fmt.Errorf("list imports: %w", err)
	}
	for _, key := range keys {
		if !strings.HasSuffix(key, ":"+importID) {
			continue
		}
		data, err := s.store.Get(ctx, key)
		if err != nil {
			return "", entry, fmt.Errorf("load %s: %w", key, err)
		}
		if err := json.Unmarshal(data, &entry); err != nil {
			return "", entry, fmt.Errorf("decode %s: %w", key, err)
		}
		return key, entry, nil
	}
	return "", entry, ErrImportNotFound
}

// ListImports returns committed imports, newest first. limit <= 0 returns all.
func (s *Service) ListImports(ctx context.Context, limit int) ([]ImportHistoryEntry, error) {
	keys, err := s.store.Keys(ctx, historyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}

	entries := make([]ImportHistoryEntry, 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		if limit > 0 && len(entries) >= limit {
			break
		}
		data, err := s.store.Get(ctx, keys[i])
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", keys[i], err)
		}
		var e ImportHistoryEntry
		if err := json.Unmarshal(data, &e); err != nil {
			continue // skip unreadable entries
		}
		entries = append(entries, e)
	}
	return entries, nil
}
