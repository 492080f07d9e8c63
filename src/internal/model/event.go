package model

// Event is anything the fire-and-forget producers can publish; the id
// becomes the kafka message key.
type Event interface {
	GetId() string
}
