package pipeline

// messageState tracks a single candidate through the run. Terminal states
// are stateSkipped, stateMarkedDone and stateFailed; each ends that
// message's processing without affecting the others.
type messageState int

const (
	stateSelected messageState = iota
	stateParsed
	stateSkipped
	stateAICalled
	stateNormalized
	stateMarkedDone
	stateFailed
)

func (s messageState) String() string {
	switch s {
	case stateSelected:
		return "SELECTED"
	case stateParsed:
		return "PARSED"
	case stateSkipped:
		return "SKIPPED"
	case stateAICalled:
		return "AI_CALLED"
	case stateNormalized:
		return "NORMALIZED"
	case stateMarkedDone:
		return "MARKED_DONE"
	case stateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}
