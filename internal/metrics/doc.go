// Package metrics exposes Prometheus metrics for the provisioning service.
//
// The recorder observes state machine transitions and portal submissions.
// Connection retries are not transitions and are deliberately not counted.
package metrics
