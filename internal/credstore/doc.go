// Package credstore persists the single wireless credential pair the device
// uses to join a network.
//
// Storage is namespace-scoped string key/value, the way embedded flash
// key/value stores expose it: a namespace is opened read-only or read-write,
// keys are staged with SetString and become durable on Commit. Three
// backends are provided:
//
//   - FileBackend: one YAML document per namespace, committed by writing a
//     temporary file and renaming it over the old one
//   - SQLiteBackend: one row per key, committed in a single transaction
//   - MemoryBackend: volatile, for development and tests
//
// Every backend commits all staged keys or none of them, so a reader never
// sees a network name paired with a stale secret.
//
// # Usage
//
//	store := credstore.New(credstore.NewFileBackend("/var/lib/wifiprov"))
//
//	if pair, ok := store.Load(); ok {
//	    fmt.Println("joining", pair.NetworkName)
//	}
//
//	if err := store.Save(credstore.Pair{NetworkName: "HomeNet", Secret: "hunter22"}); err != nil {
//	    if credstore.IsFull(err) { ... }
//	}
//
// Load never fails: a missing namespace, a missing key or a read error all
// mean "no stored pair".
package credstore
