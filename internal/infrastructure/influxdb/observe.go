package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// measurementQuery is the measurement written for every store query.
const measurementQuery = "gateway_query"

// ObserveQuery queues one point describing a store query. It implements
// gateway.QueryObserver and never blocks.
func (c *Client) ObserveQuery(database, collection string, records int, elapsed time.Duration, err error) {
	if !c.IsConnected() {
		return
	}
	c.writer.WritePoint(queryPoint(database, collection, records, elapsed, err, time.Now()))
}

func queryPoint(database, collection string, records int, elapsed time.Duration, err error, at time.Time) *write.Point {
	return write.NewPoint(
		measurementQuery,
		map[string]string{
			"database":   database,
			"collection": collection,
		},
		map[string]any{
			"records":     records,
			"duration_ms": float64(elapsed.Microseconds()) / 1000,
			"ok":          err == nil,
		},
		at,
	)
}
