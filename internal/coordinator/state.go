package coordinator

// State is a step of the run. Runs only move forward.
type State int

const (
	StateIdle State = iota
	StateIdentitiesCreated
	StateCatalogSeeded
	StateOrdersPlaced
	StateSummaryWritten
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateIdentitiesCreated:
		return "IdentitiesCreated"
	case StateCatalogSeeded:
		return "CatalogSeeded"
	case StateOrdersPlaced:
		return "OrdersPlaced"
	case StateSummaryWritten:
		return "SummaryWritten"
	default:
		return "Unknown"
	}
}
