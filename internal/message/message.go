// Package message is the minimal stand-in for the host log message that
// spec.md §1 names as an external collaborator ("the enclosing log
// pipeline"). FilterX's scope binds message-tied variables to something
// real; this package provides the smallest such something: a name->typed
// field map plus identity, carrying exactly the type tag set spec.md
// §6.3 commits to.
package message

import (
	"github.com/google/uuid"

	"github.com/rakunlabs/filterx/internal/filterx/object"
)

// Field is one name-value pair as the host message stores it: a raw
// textual repr plus a type tag (spec.md §6.3). Message-tied variables
// read/write Fields lazily through object.MessageValue.
type Field struct {
	Repr string
	Tag  string
}

// Message is the host log message. Real syslog-ng messages also carry
// priority/facility/SDATA/timestamps; those are out of spec.md's scope
// (§1: "the enclosing log pipeline...destinations, routing" and similar
// are external collaborators) so only the named-value-pair surface that
// scope sync actually touches is modeled.
type Message struct {
	ID     uuid.UUID
	fields map[string]Field
}

// New creates an empty message with a fresh identity.
func New() *Message {
	return &Message{ID: uuid.New(), fields: make(map[string]Field)}
}

// Set stores a raw field, as the host message would after ingestion
// (e.g. from a source driver) or after FilterX's scope sync writes back
// a mutated value (spec.md §4.14).
func (m *Message) Set(name string, repr string, tag string) {
	m.fields[name] = Field{Repr: repr, Tag: tag}
}

// Get returns the raw field, and whether it exists.
func (m *Message) Get(name string) (Field, bool) {
	f, ok := m.fields[name]
	return f, ok
}

// Unset removes a field (spec.md §4.14: "Message-tied with value null —
// remove the field from the host message").
func (m *Message) Unset(name string) {
	delete(m.fields, name)
}

// Has reports whether a field is present.
func (m *Message) Has(name string) bool {
	_, ok := m.fields[name]
	return ok
}

// Names returns all currently-set field names, for introspection/tests.
func (m *Message) Names() []string {
	names := make([]string, 0, len(m.fields))
	for n := range m.fields {
		names = append(names, n)
	}
	return names
}

// AsMessageValue builds the lazy object.Value view for a field, or nil if
// the field is absent.
func (m *Message) AsMessageValue(name string) *object.Value {
	f, ok := m.fields[name]
	if !ok {
		return nil
	}
	return object.NewMessageValue(f.Repr, f.Tag)
}
