package form

import "encoding/json"

// ControlType is the declared type of a form control
type ControlType string

// Control types seen in Feishu approval forms. Anything else is passed
// through untouched and never causes a failure.
const (
	TypeInput        ControlType = "input"
	TypeAmount       ControlType = "amount"
	TypeSelect       ControlType = "select"
	TypeFieldList    ControlType = "fieldList"
	TypeAttachment   ControlType = "attachment"
	TypeAttachmentV2 ControlType = "attachmentV2"
	TypeOther        ControlType = "other"
)

// Control is one named widget in an approval form. Value and Ext are
// untyped on purpose: their shape depends on Type and varies between
// approval templates, so every consumer probes them defensively.
type Control struct {
	Name  string      `json:"name"`
	Type  ControlType `json:"type"`
	Value interface{} `json:"value"`
	Ext   interface{} `json:"ext"`
}

// controlFromMap rebuilds a Control from the generic map shape produced
// when a fieldList row is decoded as part of its parent's value.
func controlFromMap(m map[string]interface{}) Control {
	c := Control{
		Value: m["value"],
		Ext:   m["ext"],
	}
	if name, ok := m["name"].(string); ok {
		c.Name = name
	}
	if typ, ok := m["type"].(string); ok {
		c.Type = ControlType(typ)
	}
	return c
}

// parseDocument decodes the raw form JSON blob into the top-level control
// sequence. The blob comes straight from the approval API and is not
// centrally schema-controlled, so a decode failure is an expected outcome.
func parseDocument(formJSON string) ([]Control, error) {
	var controls []Control
	if err := json.Unmarshal([]byte(formJSON), &controls); err != nil {
		return nil, err
	}
	return controls, nil
}
