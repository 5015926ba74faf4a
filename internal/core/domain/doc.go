// Package domain defines the core domain model for liquidstore: the
// Persona -> App -> Key hierarchy, the opaque JSON value type, and the
// structured error taxonomy shared by the embedded engine, the wire
// protocol and the remote client.
package domain
