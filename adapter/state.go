package adapter

// State is the lifecycle position of a Context.
type State uint8

const (
	Unbound    State = iota // pooled, no request attached
	Bound                   // attached, callback not yet entered
	InCallback              // callback running; the only state where calls are valid
	Disposed                // callback returned; about to be pooled
)

func (s State) String() string {
	switch s {
	case Unbound:
		return "unbound"
	case Bound:
		return "bound"
	case InCallback:
		return "in_callback"
	case Disposed:
		return "disposed"
	default:
		return "unknown"
	}
}
