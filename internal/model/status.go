package model

import "fmt"

// Status review state of a registration
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
)

// Container logical partition a registration lives in. Exactly one per
// status; a record's container is its status.
type Container string

const (
	ContainerRegistered Container = "registered"
	ContainerAccepted   Container = "accepted"
	ContainerRejected   Container = "rejected"
)

// Containers every container, in dashboard order
var Containers = []Container{ContainerRegistered, ContainerAccepted, ContainerRejected}

// Container maps a status to the container holding it.
// Unknown or empty status falls back to registered, matching legacy untagged rows.
func (s Status) Container() Container {
	switch s {
	case StatusAccepted:
		return ContainerAccepted
	case StatusRejected:
		return ContainerRejected
	default:
		return ContainerRegistered
	}
}

// Terminal reports whether no transition leaves this status
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Status maps a container back to its status.
// Untagged (empty) containers are treated as registered.
func (c Container) Status() Status {
	switch c {
	case ContainerAccepted:
		return StatusAccepted
	case ContainerRejected:
		return StatusRejected
	default:
		return StatusPending
	}
}

// ParseStatus accepts PENDING, ACCEPTED or REJECTED
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusAccepted, StatusRejected:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// ParseContainer accepts registered, accepted or rejected
func ParseContainer(s string) (Container, error) {
	switch Container(s) {
	case ContainerRegistered, ContainerAccepted, ContainerRejected:
		return Container(s), nil
	}
	return "", fmt.Errorf("unknown container %q", s)
}

// Category competition track
type Category string

const (
	CategoryPublicSpeaking Category = "PUBLIC_SPEAKING"
	CategorySpokenWord     Category = "SPOKEN_WORD"
)

// Valid reports whether c is one of the two tracks
func (c Category) Valid() bool {
	return c == CategoryPublicSpeaking || c == CategorySpokenWord
}
