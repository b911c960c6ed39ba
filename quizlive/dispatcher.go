package quizlive

import "encoding/json"

// Dispatcher routes decoded envelopes to registered callbacks.
//
// Game-state envelopes all flow through the onEnvelope callback in
// receipt order, one at a time; the usual consumer is Tracker.Apply.
// The two client-directed kinds (error, name_assigned) get their own
// typed callbacks and are not forwarded.
type Dispatcher struct {
	onEnvelope     func(Envelope)
	onNameAssigned func(NameAssignedPayload)
	onError        func(error)
}

func (d *Dispatcher) SetOnEnvelope(fn func(Envelope))                 { d.onEnvelope = fn }
func (d *Dispatcher) SetOnNameAssigned(fn func(NameAssignedPayload)) { d.onNameAssigned = fn }
func (d *Dispatcher) SetOnError(fn func(error))                      { d.onError = fn }

func (d *Dispatcher) Dispatch(env Envelope) {
	switch env.Type {
	case KindError:
		var p ErrorPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			d.fireError(WrapError(ErrorSerialization, "failed to unmarshal error payload", err))
			return
		}
		d.fireError(FromProtocolError(p))
	case KindNameAssigned:
		if d.onNameAssigned == nil {
			return
		}
		var p NameAssignedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			d.fireError(WrapError(ErrorSerialization, "failed to unmarshal name_assigned payload", err))
			return
		}
		d.onNameAssigned(p)
	default:
		if d.onEnvelope != nil {
			d.onEnvelope(env)
		}
	}
}

func (d *Dispatcher) fireError(err error) {
	if d.onError != nil && err != nil {
		d.onError(err)
	}
}
