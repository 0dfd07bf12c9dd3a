// Package api implements the HTTP surface of the LeafLens gateway.
//
// This package provides:
//   - Read-only JSON endpoints over the sensor, plant and product collections
//   - Shared-secret header authorisation on every data route
//   - Liveness, keep-alive and Prometheus endpoints
//   - Middleware stack (request ID, logging, recovery, CORS)
//
// # Request flow
//
// Every data request passes through the same steps: the secret header is
// checked, the route is resolved to a collection, the collection is read
// over a fresh store connection, and the records are normalised and
// returned as a JSON array. A failure at any step ends the request with a
// fixed error body; nothing about the store, the secret or the submitted
// value is ever echoed back.
//
// # Graceful degradation
//
// The server starts and answers /health without the document store being
// reachable. Audit, MQTT and InfluxDB integrations are optional.
package api
