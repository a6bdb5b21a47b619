package answer

// State is a step of the answer pipeline.
type State string

// Pipeline states in order. Escalating is only entered when the detector fires.
const (
	Received          State = "received"
	Embedding         State = "embedding"
	Retrieving        State = "retrieving"
	AssemblingContext State = "assembling_context"
	Completing        State = "completing"
	Logging           State = "logging"
	Escalating        State = "escalating"
	Responded         State = "responded"
	Failed            State = "failed"
)

// Terminal reports whether no further transition happens from s.
func (s State) Terminal() bool {
	return s == Responded || s == Failed
}
