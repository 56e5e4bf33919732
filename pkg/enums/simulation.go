package enums

import "fmt"

// SimOperation is the adjustment applied to a field during a what-if run.
type SimOperation string

const (
	SimOperationPercentIncrease SimOperation = "percent_increase"
	SimOperationPercentDecrease SimOperation = "percent_decrease"
	SimOperationValueIncrease   SimOperation = "value_increase"
	SimOperationValueDecrease   SimOperation = "value_decrease"
)

var validSimOperations = []SimOperation{
	SimOperationPercentIncrease,
	SimOperationPercentDecrease,
	SimOperationValueIncrease,
	SimOperationValueDecrease,
}

// String implements fmt.Stringer.
func (o SimOperation) String() string {
	return string(o)
}

// IsValid reports whether the value is a known SimOperation.
func (o SimOperation) IsValid() bool {
	for _, candidate := range validSimOperations {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseSimOperation converts raw input into a SimOperation.
func ParseSimOperation(value string) (SimOperation, error) {
	for _, candidate := range validSimOperations {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid simulation operation %q", value)
}

// SimField names a record field a simulation may adjust. Only unit cost is
// supported today; anything else is skipped with a warning.
type SimField string

const (
	SimFieldUnitCost SimField = "unit_cost"
)

// String implements fmt.Stringer.
func (f SimField) String() string {
	return string(f)
}

// IsValid reports whether the value is a supported SimField.
func (f SimField) IsValid() bool {
	return f == SimFieldUnitCost
}
