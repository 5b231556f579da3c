// Package session owns the client side of the samd request/reply link.
//
// Ownership boundary:
// - connection state (disconnected/connected) and transport lifetime
// - strict request/reply alternation: one in-flight request per Session
// - reply decoding into protocol error kinds
// - reconnect backoff helpers for callers that choose to retry
//
// The default transport is a ZeroMQ REQ socket. Any Transport
// implementation can be injected through Config.Dialer.
package session
