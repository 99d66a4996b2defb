package engine

// Outcome reports how a player action was handled. Declined actions leave
// state untouched.
type Outcome uint8

const (
	Applied       Outcome = iota
	Insufficient          // ledger balance too low
	NotReady              // field not mature
	UnknownTarget         // no such field, animal or tool
)

var outcomeNames = [...]string{"applied", "insufficient", "not_ready", "unknown_target"}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// OK reports whether the action changed state.
func (o Outcome) OK() bool { return o == Applied }

// MarshalText renders the outcome by name in JSON responses.
func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }
