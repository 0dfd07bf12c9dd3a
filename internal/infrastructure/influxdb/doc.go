// Package influxdb records gateway query telemetry in InfluxDB v2.
//
// When enabled, every store query the gateway performs becomes one point in
// the "gateway_query" measurement, tagged by database and collection, with
// the record count, duration and outcome as fields. Writes are batched and
// non-blocking so a slow or unreachable InfluxDB never delays a response.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	// client implements gateway.QueryObserver
//	svc, err := gateway.NewService(gateway.ServiceDeps{Observers: []gateway.QueryObserver{client}, ...})
package influxdb
