package store

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"saas-tenancy/internal/audit"
)

// Audit columns shared by every auditable collection.
const (
	CreatedAtColumn  = "created_at"
	CreatedByColumn  = "created_by"
	ModifiedAtColumn = "modified_at"
	ModifiedByColumn = "modified_by"
)

// AuditColumns lists the audit columns in schema order.
var AuditColumns = []string{CreatedAtColumn, CreatedByColumn, ModifiedAtColumn, ModifiedByColumn}

// creationColumns are written once, on insert.
var creationColumns = []string{CreatedAtColumn, CreatedByColumn}

// EncodeAudit writes audit metadata into row.
func EncodeAudit(row Row, f *audit.Fields) {
	row[CreatedAtColumn] = f.CreatedAt
	row[CreatedByColumn] = f.CreatedBy
	row[ModifiedAtColumn] = nil
	row[ModifiedByColumn] = nil
	if f.ModifiedAt != nil {
		row[ModifiedAtColumn] = *f.ModifiedAt
	}
	if f.ModifiedBy != nil {
		row[ModifiedByColumn] = *f.ModifiedBy
	}
}

// DecodeAudit reads audit metadata from row.
func DecodeAudit(row Row, f *audit.Fields) error {
	createdAt, err := TimeValue(row[CreatedAtColumn])
	if err != nil {
		return fmt.Errorf("%s: %w", CreatedAtColumn, err)
	}
	modifiedAt, err := OptionalTime(row[ModifiedAtColumn])
	if err != nil {
		return fmt.Errorf("%s: %w", ModifiedAtColumn, err)
	}

	f.CreatedAt = createdAt
	f.CreatedBy = StringValue(row[CreatedByColumn])
	f.ModifiedAt = modifiedAt
	f.ModifiedBy = OptionalString(row[ModifiedByColumn])
	return nil
}

// UUIDValue converts an engine value to a UUID.
func UUIDValue(v any) (uuid.UUID, error) {
	switch x := v.(type) {
	case uuid.UUID:
		return x, nil
	case string:
		return uuid.Parse(x)
	case []byte:
		return uuid.ParseBytes(x)
	case nil:
		return uuid.Nil, nil
	default:
		return uuid.Nil, fmt.Errorf("unexpected uuid value %T", v)
	}
}

// StringValue converts an engine value to a string; NULL becomes "".
func StringValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

// OptionalString converts an engine value to *string; NULL becomes nil.
func OptionalString(v any) *string {
	if v == nil {
		return nil
	}
	s := StringValue(v)
	return &s
}

func FloatValue(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int:
		return float64(x), nil
	case []byte:
		return strconv.ParseFloat(string(x), 64)
	case string:
		return strconv.ParseFloat(x, 64)
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("unexpected numeric value %T", v)
	}
}

func BoolValue(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case []byte:
		return strconv.ParseBool(string(x))
	case string:
		return strconv.ParseBool(x)
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected bool value %T", v)
	}
}

func TimeValue(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case nil:
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("unexpected time value %T", v)
	}
}

// OptionalTime converts an engine value to *time.Time; NULL becomes nil.
func OptionalTime(v any) (*time.Time, error) {
	if v == nil {
		return nil, nil
	}
	t, err := TimeValue(v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
