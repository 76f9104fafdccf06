package loader

// State is the lifecycle of one batch.
//
//	Pending -> Executing -> Committed
//	                     -> Failed
type State uint8

const (
	Pending State = iota
	Executing
	Committed
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Executing:
		return "executing"
	case Committed:
		return "committed"
	case Failed:
		return "failed"
	}
	return "unknown"
}
