package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Store key layout.
const (
	recordPrefix   = "shipment:"
	recordSequence = "seq:shipment"
	templatePrefix = "template:"
	historyPrefix  = "import:"
)

// recordKey zero-pads ids so store keys sort in id order.
func recordKey(id int64) string {
	return fmt.Sprintf("%s%012d", recordPrefix, id)
}

// parseRecordKey returns the id of a record key.
func parseRecordKey(key string) (int64, bool) {
	if !strings.HasPrefix(key, recordPrefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(key, recordPrefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func encodeRecord(rec ShipmentRecord) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode shipment %d: %w", rec.ID, err)
	}
	return data, nil
}

func decodeRecord(data []byte) (ShipmentRecord, error) {
	var rec ShipmentRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return ShipmentRecord{}, fmt.Errorf("decode shipment: %w", err)
	}
	if rec.Fields == nil {
		rec.Fields = make(map[string]Value)
	}
	return rec, nil
}
