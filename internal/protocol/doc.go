// Package protocol owns the samd request/reply contract shared by the
// client packages.
//
// Ownership boundary:
// - protocol version trailer
// - failure taxonomy surfaced to callers
//
// Subpackages:
// - frame: frame/sequence primitives and reply parsing
// - message: single-use request builder
// - session: transport owner enforcing request/reply alternation
// - rabbitmq: publish and exchange verb encoders
// - control: ping/status/stop verbs
package protocol
