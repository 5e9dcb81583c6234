package enums

import "fmt"

// EmployeeStatus maps to the employee_status_enum enum in Postgres.
type EmployeeStatus string

const (
	EmployeeStatusActive    EmployeeStatus = "active"
	EmployeeStatusSeparated EmployeeStatus = "separated"
)

var validEmployeeStatuses = []EmployeeStatus{
	EmployeeStatusActive,
	EmployeeStatusSeparated,
}

// String implements fmt.Stringer.
func (s EmployeeStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known EmployeeStatus.
func (s EmployeeStatus) IsValid() bool {
	for _, candidate := range validEmployeeStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseEmployeeStatus converts raw input into an EmployeeStatus.
func ParseEmployeeStatus(value string) (EmployeeStatus, error) {
	for _, candidate := range validEmployeeStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid employee status %q", value)
}
