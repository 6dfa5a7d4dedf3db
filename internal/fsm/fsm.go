package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle         State = "idle"
	StateCountingDown State = "counting_down"
	StateRecording    State = "recording"
	StateBetweenWords State = "between_words"
	StateUploading    State = "uploading"
	StateDone         State = "done"
)

const (
	EventRecord    Event = "record"
	EventBegin     Event = "begin"
	EventStop      Event = "stop"
	EventTimeout   Event = "timeout"
	EventHalt      Event = "halt"
	EventExhausted Event = "exhausted"
	EventConfirm   Event = "confirm"
	EventDecline   Event = "decline"
	EventUpload    Event = "upload"
	EventUploaded  Event = "uploaded"
	EventFail      Event = "fail"
	EventReload    Event = "reload"
)

// Transition returns the state reached by applying event to current.
//
// Stop during CountingDown or BetweenWords leaves the state unchanged; the
// caller records the suppression and the next continuation halts.
func Transition(current State, event Event) (State, error) {
	switch current {
	case StateIdle:
		switch event {
		case EventRecord:
			return StateCountingDown, nil
		case EventUpload:
			return StateUploading, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateCountingDown:
		switch event {
		case EventBegin:
			return StateRecording, nil
		case EventStop:
			return StateCountingDown, nil
		case EventHalt, EventFail:
			return StateIdle, nil
		case EventExhausted:
			return StateBetweenWords, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateRecording:
		switch event {
		case EventStop, EventTimeout:
			return StateBetweenWords, nil
		case EventFail:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateBetweenWords:
		switch event {
		case EventBegin:
			return StateRecording, nil
		case EventStop, EventExhausted:
			return StateBetweenWords, nil
		case EventHalt, EventDecline, EventFail:
			return StateIdle, nil
		case EventConfirm:
			return StateUploading, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateUploading:
		switch event {
		case EventUploaded:
			return StateDone, nil
		case EventFail:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateDone:
		switch event {
		case EventReload:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
