package form

import (
	"go.uber.org/zap"
)

// maxWalkDepth bounds fieldList recursion. Real approval templates nest
// one or two levels; the guard only exists so a pathological document
// cannot blow the stack.
const maxWalkDepth = 32

// Walker flattens an approval form document into plain fields and
// attachment descriptors.
type Walker struct {
	logger *zap.Logger
}

// NewWalker creates a new form walker
func NewWalker(logger *zap.Logger) *Walker {
	return &Walker{logger: logger}
}

// Walk traverses the form control tree depth-first and returns the
// flattened field sequence and every attachment descriptor found at any
// nesting depth, both in document order.
//
// Grouping (fieldList) controls are kept in the field sequence ahead of
// their flattened children so that summary rules can still read their ext
// data. Malformed form JSON yields empty results rather than an error:
// downstream treats "no fields" as a legitimate, if unusual, outcome.
func (w *Walker) Walk(formJSON string) ([]Control, []Attachment) {
	controls, err := parseDocument(formJSON)
	if err != nil {
		w.logger.Warn("Form JSON not parseable, treating as empty form",
			zap.Error(err))
		return nil, nil
	}

	var fields []Control
	var attachments []Attachment
	w.walkControls(controls, 0, &fields, &attachments)
	return fields, attachments
}

func (w *Walker) walkControls(controls []Control, depth int, fields *[]Control, attachments *[]Attachment) {
	if depth > maxWalkDepth {
		w.logger.Warn("Form nesting exceeds walk depth limit, not descending",
			zap.Int("depth", depth))
		return
	}

	for _, control := range controls {
		switch control.Type {
		case TypeFieldList:
			*fields = append(*fields, control)
			w.walkRows(control, depth+1, fields, attachments)

		case TypeAttachment, TypeAttachmentV2:
			*attachments = append(*attachments, w.resolveAttachmentControl(control)...)

		default:
			*fields = append(*fields, control)
		}
	}
}

// walkRows recurses into a fieldList control. Its value is a list of
// rows, each row itself a list of controls; anything that does not match
// that shape is skipped.
func (w *Walker) walkRows(control Control, depth int, fields *[]Control, attachments *[]Attachment) {
	rows, ok := control.Value.([]interface{})
	if !ok {
		return
	}

	for _, row := range rows {
		cells, ok := row.([]interface{})
		if !ok {
			continue
		}

		controls := make([]Control, 0, len(cells))
		for _, cell := range cells {
			m, ok := cell.(map[string]interface{})
			if !ok {
				continue
			}
			controls = append(controls, controlFromMap(m))
		}
		w.walkControls(controls, depth, fields, attachments)
	}
}
