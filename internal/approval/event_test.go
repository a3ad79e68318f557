package approval

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventStatusProbesV1AndV2Fields(t *testing.T) {
	tests := []struct {
		name     string
		event    map[string]interface{}
		expected string
	}{
		{"top-level status", map[string]interface{}{"status": "APPROVED"}, "APPROVED"},
		{"instance_status", map[string]interface{}{"instance_status": "REJECTED"}, "REJECTED"},
		{"nested object status", map[string]interface{}{
			"object": map[string]interface{}{"status": "APPROVED"},
		}, "APPROVED"},
		{"missing everywhere", map[string]interface{}{}, ""},
		{"status wins over object", map[string]interface{}{
			"status": "APPROVED",
			"object": map[string]interface{}{"status": "PENDING"},
		}, "APPROVED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Event{Event: tt.event}
			assert.Equal(t, tt.expected, e.Status())
		})
	}
}

func TestEventInstanceCode(t *testing.T) {
	tests := []struct {
		name     string
		event    map[string]interface{}
		expected string
	}{
		{"instance_code", map[string]interface{}{"instance_code": "IC-1"}, "IC-1"},
		{"approval_code fallback", map[string]interface{}{"approval_code": "AC-1"}, "AC-1"},
		{"nested object", map[string]interface{}{
			"object": map[string]interface{}{"instance_code": "IC-2"},
		}, "IC-2"},
		{"missing", map[string]interface{}{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Event{Event: tt.event}
			assert.Equal(t, tt.expected, e.InstanceCode())
		})
	}
}

func TestEventDecodesFromWirePayload(t *testing.T) {
	payload := `{
		"schema": "2.0",
		"header": {
			"event_id": "ev-1",
			"event_type": "approval.approval_instance.status_change_v4",
			"tenant_key": "t1"
		},
		"event": {
			"instance_code": "IC-9",
			"status": "APPROVED"
		}
	}`

	var event Event
	require.NoError(t, json.Unmarshal([]byte(payload), &event))

	assert.Equal(t, "ev-1", event.Header.EventID)
	assert.Equal(t, "APPROVED", event.Status())
	assert.Equal(t, "IC-9", event.InstanceCode())
}
