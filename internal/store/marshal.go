package store

import (
	"database/sql"
	"fmt"

	"github.com/roach88/smartcoll/internal/value"
)

// marshalItem converts an item to canonical JSON TEXT and its hash.
// A nil item is stored as NULL.
func marshalItem(v value.Value) (sql.NullString, string, error) {
	if v == nil {
		return sql.NullString{}, "", nil
	}
	data, err := value.MarshalCanonical(v)
	if err != nil {
		return sql.NullString{}, "", fmt.Errorf("marshal item: %w", err)
	}
	hash, err := value.Hash(v)
	if err != nil {
		return sql.NullString{}, "", fmt.Errorf("hash item: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, hash, nil
}

// unmarshalItem parses canonical JSON TEXT back to an item.
func unmarshalItem(data sql.NullString) (value.Value, error) {
	if !data.Valid {
		return nil, nil
	}
	v, err := value.Parse([]byte(data.String))
	if err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return v, nil
}
