package enums

import "fmt"

// BulkField names the record field a bulk update may overwrite.
type BulkField string

const (
	BulkFieldUnitCost BulkField = "unit_cost"
	BulkFieldCategory BulkField = "category"
)

var validBulkFields = []BulkField{
	BulkFieldUnitCost,
	BulkFieldCategory,
}

// String implements fmt.Stringer.
func (f BulkField) String() string {
	return string(f)
}

// IsValid reports whether the value is a known BulkField.
func (f BulkField) IsValid() bool {
	for _, candidate := range validBulkFields {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseBulkField converts raw input into a BulkField.
func ParseBulkField(value string) (BulkField, error) {
	for _, candidate := range validBulkFields {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid bulk update field %q", value)
}
