package mqtt

import "strings"

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "leaflens"

// Topics builds topic names under a common prefix.
type Topics struct {
	prefix string
}

// NewTopics returns topic builders for prefix. Surrounding slashes are
// trimmed and an empty prefix selects DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// SystemStatus returns the retained availability topic.
//
// Example: leaflens/system/status
func (t Topics) SystemStatus() string {
	return t.prefix + "/system/status"
}

// AuditEvent returns the topic for audit summaries of the given action.
//
// Example: leaflens/audit/auth_failure
func (t Topics) AuditEvent(action string) string {
	return t.prefix + "/audit/" + action
}

// AllAuditEvents returns a pattern matching every audit topic.
//
// Pattern: leaflens/audit/+
func (t Topics) AllAuditEvents() string {
	return t.prefix + "/audit/+"
}
