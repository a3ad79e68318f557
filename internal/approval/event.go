package approval

// Event represents a Feishu approval event envelope. The event body keeps
// its generic shape because Feishu delivers both v1 and v2 layouts and the
// bridge only needs two values out of it.
type Event struct {
	Schema string                 `json:"schema"`
	Header EventHeader            `json:"header"`
	Event  map[string]interface{} `json:"event"`
}

// EventHeader contains event metadata
type EventHeader struct {
	EventID    string `json:"event_id"`
	EventType  string `json:"event_type"`
	CreateTime string `json:"create_time"`
	Token      string `json:"token"`
	AppID      string `json:"app_id"`
	TenantKey  string `json:"tenant_key"`
}

// StatusApproved is the only instance status the bridge acts on.
const StatusApproved = "APPROVED"

// Status returns the approval status, probing the v1 and v2 field
// locations in order.
func (e *Event) Status() string {
	return e.eventString("status", "instance_status")
}

// InstanceCode returns the approval instance code, probing the v1 and v2
// field locations in order.
func (e *Event) InstanceCode() string {
	return e.eventString("instance_code", "approval_code")
}

// eventString returns the first non-empty string among the given keys,
// checked first at the event's top level and then inside its nested
// object field.
func (e *Event) eventString(keys ...string) string {
	for _, k := range keys {
		if s, ok := e.Event[k].(string); ok && s != "" {
			return s
		}
	}
	if object, ok := e.Event["object"].(map[string]interface{}); ok {
		for _, k := range keys {
			if s, ok := object[k].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
