package emit

// NullEmitter implements Emitter by discarding all events.
//
// Use it when observability output is not wanted, e.g. batch runs in
// tests or embedded deployments.
type NullEmitter struct{}

// NewNullEmitter creates a new NullEmitter.
func NewNullEmitter() *NullEmitter {
	return &NullEmitter{}
}

// Emit discards the event without any processing.
func (n *NullEmitter) Emit(event Event) {}
