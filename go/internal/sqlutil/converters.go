package sqlutil

import (
	"database/sql"
	"time"
)

// Helper functions for converting between Go types and sql.Null* types.
// Times are stored as UTC unix milliseconds.

// ToMillis converts a time to UTC unix milliseconds
func ToMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

// FromMillis converts UTC unix milliseconds to a time
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// ToNullMillis converts a Go time pointer to sql.NullInt64 milliseconds
func ToNullMillis(val *time.Time) sql.NullInt64 {
	if val == nil {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: ToMillis(*val), Valid: true}
}

// FromNullMillis converts sql.NullInt64 milliseconds to a Go time pointer
func FromNullMillis(val sql.NullInt64) *time.Time {
	if !val.Valid {
		return nil
	}
	t := FromMillis(val.Int64)
	return &t
}

// ToSqlInt64 converts a Go int64 pointer to sql.NullInt64
func ToSqlInt64(val *int64) sql.NullInt64 {
	if val == nil {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: *val, Valid: true}
}

// FromSqlInt64 converts sql.NullInt64 to a Go int64 pointer
func FromSqlInt64(val sql.NullInt64) *int64 {
	if !val.Valid {
		return nil
	}
	v := val.Int64
	return &v
}
