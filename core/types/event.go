package types

// Event represents a typed event emitted by an engine operation, flattened to
// string attributes for relaying to RPC clients and logs.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// Attribute returns the named attribute, or "" when absent.
func (e *Event) Attribute(key string) string {
	if e == nil || e.Attributes == nil {
		return ""
	}
	return e.Attributes[key]
}

// Clone returns a deep copy of the event.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	clone := &Event{Type: e.Type}
	if e.Attributes != nil {
		clone.Attributes = make(map[string]string, len(e.Attributes))
		for k, v := range e.Attributes {
			clone.Attributes[k] = v
		}
	}
	return clone
}
