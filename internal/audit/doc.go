// Package audit keeps a durable trail of rejected gateway requests.
//
// Entries are queued by a Recorder and written serially to SQLite by a
// single drain loop, so recording never adds latency to the request that
// triggered it. When a Publisher is configured, a summary of each entry
// is also announced over MQTT for live monitoring.
//
// Stored entries for authorisation failures include the submitted header
// value. Published summaries and log lines never do.
package audit
