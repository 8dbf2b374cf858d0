package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/shipbatch/internal/store"
)

// RecordVerdict pairs a stored record with its current verdict.
type RecordVerdict struct {
	Record  ShipmentRecord `json:"record"`
	Verdict Verdict        `json:"verdict"`
}

// GetRecord loads one stored record.
func (s *Service) GetRecord(ctx context.Context, id int64) (ShipmentRecord, error) {
	data, err := s.store.Get(ctx, recordKey(id))
	if errors.Is(err, store.ErrNotFound) {
		return ShipmentRecord{}, fmt.Errorf("get shipment %d: %w", id, ErrRecordNotFound)
	}
	if err != nil {
		return ShipmentRecord{}, fmt.Errorf("get shipment %d: %w", id, err)
	}
	return decodeRecord(data)
}

// ListRecords returns every stored record in id order.
func (s *Service) ListRecords(ctx context.Context) ([]ShipmentRecord, error) {
	keys, err := s.store.Keys(ctx, recordPrefix)
	if err != nil {
		return nil, fmt.Errorf("list shipments: %w", err)
	}

	records := make([]ShipmentRecord, 0, len(keys))
	for _, key := range keys {
		if _, ok := parseRecordKey(key); !ok {
			continue
		}
		data, err := s.store.Get(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			continue // deleted while listing
		}
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", key, err)
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", key, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// ValidateStored recomputes the verdict of a stored record. Verdicts are
// never cached, so the result always reflects the record's current fields.
func (s *Service) ValidateStored(ctx context.Context, id int64) (Verdict, error) {
	rec, err := s.GetRecord(ctx, id)
	if err != nil {
		return Verdict{}, err
	}
	all, err := s.ListRecords(ctx)
	if err != nil {
		return Verdict{}, err
	}
	return s.env.Validate(rec, BuildDuplicateIndex(all)), nil
}

// ValidateAll returns every stored record with its verdict.
func (s *Service) ValidateAll(ctx context.Context) ([]RecordVerdict, error) {
	all, err := s.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	dups := BuildDuplicateIndex(all)

	out := make([]RecordVerdict, len(all))
	for i, rec := range all {
		out[i] = RecordVerdict{Record: rec, Verdict: s.env.Validate(rec, dups)}
	}
	return out, nil
}

// Export encodes the stored records in format. With validOnly, records
// with a failing verdict are left out.
func (s *Service) Export(ctx context.Context, format Format, validOnly bool) (*Export, error) {
	start := time.Now()

	verdicts, err := s.ValidateAll(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]ShipmentRecord, 0, len(verdicts))
	skipped := 0
	for _, rv := range verdicts {
		if validOnly && !rv.Verdict.IsValid {
			skipped++
			continue
		}
		records = append(records, rv.Record)
	}

	out, err := s.encoder.Encode(records, format)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", format.Name, err)
	}

	s.logger.Info("export completed",
		"format", format.Name,
		"records", out.Records,
		"skipped_invalid", skipped,
		"substitutions", len(out.Substitutions),
		"bytes", len(out.Data),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
