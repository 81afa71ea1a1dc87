package models

// Lifecycle is the logical state of a soft-deletable record.
type Lifecycle string

const (
	LifecycleActive   Lifecycle = "active"
	LifecycleArchived Lifecycle = "archived"
)

func lifecycleOf(archived bool) Lifecycle {
	if archived {
		return LifecycleArchived
	}
	return LifecycleActive
}

// StateFilter selects records by lifecycle on read paths. There is no implicit default:
// every listing states which records it wants.
type StateFilter int

const (
	Active StateFilter = iota + 1
	Archived
	AnyState
)

// Archived reports the value of the archived column matching the filter,
// and false when the filter does not constrain it.
func (f StateFilter) Archived() (archived bool, constrained bool) {
	switch f {
	case Active:
		return false, true
	case Archived:
		return true, true
	default:
		return false, false
	}
}

func (f StateFilter) String() string {
	switch f {
	case Active:
		return "active"
	case Archived:
		return "archived"
	case AnyState:
		return "any"
	default:
		return "unknown"
	}
}

// ParseStateFilter maps CLI input to a filter.
func ParseStateFilter(s string) (StateFilter, bool) {
	switch s {
	case "", "active":
		return Active, true
	case "archived":
		return Archived, true
	case "all", "any":
		return AnyState, true
	default:
		return 0, false
	}
}
