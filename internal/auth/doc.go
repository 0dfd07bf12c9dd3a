// Package auth implements the shared-secret gate in front of the LeafLens
// data endpoints.
//
// A request is authorised only when a fixed header carries a value equal,
// byte for byte, to the secret configured at startup. There is no hashing,
// expiry or rotation: one static secret lives for the process lifetime.
//
// Failed attempts are reported to a FailureRecorder (the audit trail) with
// the submitted value so operators can see what was tried. The configured
// secret itself is never logged, recorded or returned.
package auth
