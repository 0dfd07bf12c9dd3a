// Package mqtt publishes gateway events to an MQTT broker.
//
// The gateway is a publisher only. It announces its own availability on
// a retained status topic, backed by a Last Will and Testament so that
// subscribers see it go offline after a crash, and it publishes a summary
// of every audit entry for live monitoring.
//
// Topics live under a configurable prefix (default "leaflens"):
//
//	leaflens/system/status          retained online/offline status
//	leaflens/audit/{action}         audit event summaries
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishAuditEvent("auth_failure", payload)
package mqtt
