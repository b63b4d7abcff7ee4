// Package machine implements the connectivity provisioning state machine.
//
// On Start the machine reads the credential store. With a stored pair it
// configures client mode and requests a connection (Connecting). Without one
// it configures the fixed access point, starts the provisioning portal and
// waits for an operator to submit credentials (Provisioning).
//
// After Start, Run is the single consumer of every input: network layer
// events, credential submissions from the portal and, when enabled, connect
// watchdog expiries. Inputs are handled one at a time in arrival order.
//
// # States
//
//	Unprovisioned --stored pair--> Connecting --address--> Connected
//	Unprovisioned --no pair------> Provisioning
//	Provisioning  --submission---> Connecting
//	Connecting    --disconnect---> Connecting (connect requested again)
//	Connected     --disconnect---> Connecting
//
// A disconnect while not Connected always issues exactly one new connect
// request, with no delay and no limit. A wrong secret and an unreachable
// network look the same here: both loop in Connecting until the credentials
// are replaced.
//
// Submitting credentials does not tear down the access point or the portal,
// so the operator's session stays usable while the device connects.
//
// # Watchdog
//
// Options.ConnectTimeout (disabled by default) treats a connect request that
// produced no event within the timeout as a disconnect.
package machine
