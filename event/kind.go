package event

// Kind names an event.
type Kind string

const (
	Started           Kind = "started"
	Paused            Kind = "paused"
	BeforeClear       Kind = "beforeClear"
	Cleared           Kind = "cleared"
	WaitingForData    Kind = "waitingForData"
	WillDestruct      Kind = "willDestruct"
	ProcessingStart   Kind = "processingStart"
	ProcessingSuccess Kind = "processingSuccess"
	ProcessingError   Kind = "processingError"
	ProcessingEnd     Kind = "processingEnd"
)

// Kinds lists every kind in lifecycle order.
var Kinds = []Kind{
	Started,
	Paused,
	BeforeClear,
	Cleared,
	WaitingForData,
	WillDestruct,
	ProcessingStart,
	ProcessingSuccess,
	ProcessingError,
	ProcessingEnd,
}

// Preventable reports whether listeners may veto events of this kind.
func (k Kind) Preventable() bool {
	switch k {
	case ProcessingStart, BeforeClear, WillDestruct:
		return true
	default:
		return false
	}
}

func (k Kind) String() string {
	return string(k)
}
