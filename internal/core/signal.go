package core

// Frame is a raw encoded payload handed to the transport.
type Frame []byte

// SessionID identifies one live connection. A user with two clients
// holds two session ids.
type SessionID string

// SignalConnection abstracts the system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
