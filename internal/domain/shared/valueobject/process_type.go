package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ProcessType is a value object identifying an external processing operation
// (outside work) performed on factory material by a partner facility.
// It is shared between the partner directory and the outwork context.
type ProcessType string

// Recognized process types
const (
	ProcessForging       ProcessType = "forging"
	ProcessPlating       ProcessType = "plating"
	ProcessBuffing       ProcessType = "buffing"
	ProcessBlasting      ProcessType = "blasting"
	ProcessHeatTreatment ProcessType = "heat_treatment"
	ProcessJobWork       ProcessType = "job_work" // Generic catch-all for uncategorized outside work
)

// AllProcessTypes returns every recognized process type
func AllProcessTypes() []ProcessType {
	return []ProcessType{
		ProcessForging,
		ProcessPlating,
		ProcessBuffing,
		ProcessBlasting,
		ProcessHeatTreatment,
		ProcessJobWork,
	}
}

// String returns the string representation of the process type
func (p ProcessType) String() string {
	return string(p)
}

// IsValid returns true if the process type is recognized
func (p ProcessType) IsValid() bool {
	switch p {
	case ProcessForging, ProcessPlating, ProcessBuffing, ProcessBlasting, ProcessHeatTreatment, ProcessJobWork:
		return true
	}
	return false
}

// ProcessTypeList is an ordered set of process types.
// Stored as a JSON array so the same column works on postgres (jsonb) and sqlite.
type ProcessTypeList []ProcessType

// NewProcessTypeList normalizes a slice of process types, collapsing duplicates
// while preserving first-seen order. Unknown types are rejected.
func NewProcessTypeList(types []ProcessType) (ProcessTypeList, error) {
	seen := make(map[ProcessType]bool, len(types))
	list := make(ProcessTypeList, 0, len(types))
	for _, t := range types {
		if !t.IsValid() {
			return nil, fmt.Errorf("unknown process type: %s", t)
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		list = append(list, t)
	}
	return list, nil
}

// Contains reports whether the list includes the given process type
func (l ProcessTypeList) Contains(t ProcessType) bool {
	for _, p := range l {
		if p == t {
			return true
		}
	}
	return false
}

// Add returns a new list with the process type included.
// The receiver is never mutated.
func (l ProcessTypeList) Add(t ProcessType) ProcessTypeList {
	if l.Contains(t) {
		return l
	}
	result := make(ProcessTypeList, len(l), len(l)+1)
	copy(result, l)
	return append(result, t)
}

// Remove returns a new list without the process type.
// The receiver is never mutated.
func (l ProcessTypeList) Remove(t ProcessType) ProcessTypeList {
	if !l.Contains(t) {
		return l
	}
	result := make(ProcessTypeList, 0, len(l)-1)
	for _, p := range l {
		if p != t {
			result = append(result, p)
		}
	}
	return result
}

// Strings returns the list as plain strings for API responses
func (l ProcessTypeList) Strings() []string {
	result := make([]string, len(l))
	for i, p := range l {
		result[i] = string(p)
	}
	return result
}

// Value implements driver.Valuer for database storage
func (l ProcessTypeList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner for database retrieval
func (l *ProcessTypeList) Scan(value any) error {
	if value == nil {
		*l = ProcessTypeList{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into ProcessTypeList", value)
	}

	if len(data) == 0 || string(data) == "null" {
		*l = ProcessTypeList{}
		return nil
	}

	return json.Unmarshal(data, l)
}
