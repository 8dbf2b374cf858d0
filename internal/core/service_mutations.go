package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/shipbatch/internal/store"
)

// CreateRecord stores a new shipment built from fields and returns it with
// its assigned id. Text values are cleaned and typed like imported cells;
// mandatory fields left empty get their catalog default.
func (s *Service) CreateRecord(ctx context.Context, fields map[string]Value) (ShipmentRecord, error) {
	prepared, err := s.prepareFields(fields)
	if err != nil {
		return ShipmentRecord{}, err
	}

	id, err := s.store.Incr(ctx, recordSequence)
	if err != nil {
		return ShipmentRecord{}, fmt.Errorf("assign shipment id: %w", err)
	}

	rec := ApplyDefaults(s.env.Catalog, NewRecord(id).Merge(prepared))
	if err := s.putRecord(ctx, rec); err != nil {
		return ShipmentRecord{}, err
	}

	s.logger.Debug("shipment created", "record_id", id, "fields", len(rec.Fields))
	return rec, nil
}

// UpdateRecord merges fields into the stored record. An empty text value
// clears the field.
func (s *Service) UpdateRecord(ctx context.Context, id int64, fields map[string]Value) (ShipmentRecord, error) {
	prepared, err := s.prepareFields(fields)
	if err != nil {
		return ShipmentRecord{}, err
	}

	rec, err := s.GetRecord(ctx, id)
	if err != nil {
		return ShipmentRecord{}, err
	}

	updated := rec.Merge(prepared)
	if err := s.putRecord(ctx, updated); err != nil {
		return ShipmentRecord{}, err
	}

	s.logger.Debug("shipment updated", "record_id", id, "changed", len(prepared))
	return updated, nil
}

// DeleteRecord removes a stored record.
func (s *Service) DeleteRecord(ctx context.Context, id int64) error {
	err := s.store.Delete(ctx, recordKey(id))
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete shipment %d: %w", id, ErrRecordNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete shipment %d: %w", id, err)
	}
	s.logger.Debug("shipment deleted", "record_id", id)
	return nil
}

// ClearRecords deletes every stored record and returns how many were removed.
// The id sequence is not reset, so ids are never reused.
func (s *Service) ClearRecords(ctx context.Context) (int, error) {
	keys, err := s.store.Keys(ctx, recordPrefix)
	if err != nil {
		return 0, fmt.Errorf("list shipments: %w", err)
	}

	deleted := 0
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil && !errors.Is(err, store.ErrNotFound) {
			return deleted, fmt.Errorf("delete %s: %w", key, err)
		}
		deleted++
	}

	s.logger.Info("shipments cleared", "deleted", deleted)
	return deleted, nil
}

// prepareFields checks keys against the catalog and types text values.
func (s *Service) prepareFields(fields map[string]Value) (map[string]Value, error) {
	out := make(map[string]Value, len(fields))
	for key, v := range fields {
		spec, ok := s.env.Catalog.Lookup(key)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, key)
		}
		if v.Kind == ValueText && !v.IsEmpty() {
			v = TypedValue(spec, CleanCell(v.Str))
		}
		out[key] = v
	}
	return out, nil
}

func (s *Service) putRecord(ctx context.Context, rec ShipmentRecord) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	if err := s.store.Put(ctx, recordKey(rec.ID), data); err != nil {
		return fmt.Errorf("save shipment %d: %w", rec.ID, err)
	}
	return nil
}
