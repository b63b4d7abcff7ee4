// Package portal serves the provisioning web form while the device runs its
// own access point.
//
// Exactly two routes are exposed:
//
//	GET  /         static form with "ssid" and "password" fields
//	POST /connect  save the submitted pair and hand it to the state machine
//
// The POST body is read as a single bounded chunk (BodyLimit, 100 bytes by
// default). Oversized bodies are rejected with 413 and empty ones with 400;
// neither touches storage. The two fields are extracted by splitting at the
// first '&'; the second field takes the rest of the buffer up to whitespace.
// Values are truncated to 32 and 64 bytes. An empty network name is saved
// and submitted like any other.
//
// When the credential store cannot be written the handler answers 500 with
// a failure page and the state machine is not signalled.
package portal
