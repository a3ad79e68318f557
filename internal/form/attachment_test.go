package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func walkOne(t *testing.T, control Control) []Attachment {
	t.Helper()
	return NewWalker(zap.NewNop()).resolveAttachmentControl(control)
}

func TestResolveBareURLString(t *testing.T) {
	// A bare URL that is not valid JSON becomes a single token-less
	// descriptor with a generated name.
	atts := walkOne(t, Control{
		Name:  "附件",
		Type:  TypeAttachmentV2,
		Value: "http://x/y.pdf",
	})

	if assert.Len(t, atts, 1) {
		assert.Equal(t, "attachment_1", atts[0].Name)
		assert.Equal(t, "http://x/y.pdf", atts[0].DownloadURL)
		assert.Empty(t, atts[0].FileToken)
		assert.Nil(t, atts[0].Content)
	}
}

func TestResolveNonURLStringDiscarded(t *testing.T) {
	atts := walkOne(t, Control{
		Type:  TypeAttachmentV2,
		Value: "just some text",
	})
	assert.Empty(t, atts)
}

func TestResolveEmptyValue(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
	}{
		{"nil value", nil},
		{"empty string", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			atts := walkOne(t, Control{Type: TypeAttachment, Value: tt.value})
			assert.Empty(t, atts)
		})
	}
}

func TestResolveURLListWithExtNames(t *testing.T) {
	atts := walkOne(t, Control{
		Type:  TypeAttachmentV2,
		Value: []interface{}{"http://x/a.pdf", "http://x/b.pdf", "http://x/c.pdf"},
		Ext:   "invoice.pdf, receipt.pdf",
	})

	if assert.Len(t, atts, 3) {
		assert.Equal(t, "invoice.pdf", atts[0].Name)
		assert.Equal(t, "receipt.pdf", atts[1].Name)
		// No third ext name: positional fallback
		assert.Equal(t, "attachment_3", atts[2].Name)
	}
}

func TestResolveJSONEncodedValue(t *testing.T) {
	// Value arrives as a JSON string that itself decodes to a file list
	atts := walkOne(t, Control{
		Type:  TypeAttachment,
		Value: `[{"file_token": "tok1", "name": "report.pdf", "mime_type": "application/pdf"}]`,
	})

	if assert.Len(t, atts, 1) {
		assert.Equal(t, "tok1", atts[0].FileToken)
		assert.Equal(t, "report.pdf", atts[0].Name)
		assert.Equal(t, "application/pdf", atts[0].MimeType)
	}
}

func TestResolveObjectEntries(t *testing.T) {
	tests := []struct {
		name     string
		entry    map[string]interface{}
		expected Attachment
	}{
		{
			name:     "token under file_token",
			entry:    map[string]interface{}{"file_token": "tokA", "name": "a.pdf"},
			expected: Attachment{FileToken: "tokA", Name: "a.pdf"},
		},
		{
			name:     "token under token, name under file_name",
			entry:    map[string]interface{}{"token": "tokB", "file_name": "b.pdf"},
			expected: Attachment{FileToken: "tokB", Name: "b.pdf"},
		},
		{
			name:     "url under download_url, fallback name",
			entry:    map[string]interface{}{"download_url": "http://x/c.pdf"},
			expected: Attachment{Name: "attachment_1", DownloadURL: "http://x/c.pdf"},
		},
		{
			name:     "direct url key",
			entry:    map[string]interface{}{"url": "http://x/d.pdf", "name": "d.pdf"},
			expected: Attachment{Name: "d.pdf", DownloadURL: "http://x/d.pdf"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			atts := walkOne(t, Control{
				Type:  TypeAttachment,
				Value: []interface{}{tt.entry},
			})
			if assert.Len(t, atts, 1) {
				assert.Equal(t, tt.expected, atts[0])
			}
		})
	}
}

func TestResolveSkipsEntriesWithoutTokenOrURL(t *testing.T) {
	atts := walkOne(t, Control{
		Type: TypeAttachment,
		Value: []interface{}{
			map[string]interface{}{"name": "orphan.pdf"},
			map[string]interface{}{"file_token": "tok1", "name": "ok.pdf"},
		},
	})

	if assert.Len(t, atts, 1) {
		assert.Equal(t, "ok.pdf", atts[0].Name)
	}
}

func TestResolveSkipsUnknownShapes(t *testing.T) {
	atts := walkOne(t, Control{
		Type: TypeAttachmentV2,
		Value: []interface{}{
			42.0,
			true,
			"not-a-url",
			"http://x/ok.pdf",
		},
	})

	if assert.Len(t, atts, 1) {
		assert.Equal(t, "http://x/ok.pdf", atts[0].DownloadURL)
		// Fallback name keeps the sibling position, not a compacted index
		assert.Equal(t, "attachment_4", atts[0].Name)
	}
}

func TestResolveLoneObjectWrapped(t *testing.T) {
	atts := walkOne(t, Control{
		Type:  TypeAttachment,
		Value: map[string]interface{}{"file_token": "solo", "name": "solo.pdf"},
	})

	if assert.Len(t, atts, 1) {
		assert.Equal(t, "solo", atts[0].FileToken)
	}
}

func TestExtFilenames(t *testing.T) {
	tests := []struct {
		name     string
		ext      interface{}
		expected []string
	}{
		{"comma separated string", " a.pdf , b.pdf ", []string{"a.pdf", "b.pdf"}},
		{"object with name", map[string]interface{}{"name": "n.pdf"}, []string{"n.pdf"}},
		{"object with file_name", map[string]interface{}{"file_name": "f.pdf"}, []string{"f.pdf"}},
		{"already a list", []interface{}{"x.pdf", "y.pdf"}, []string{"x.pdf", "y.pdf"}},
		{"list with non-strings keeps positions", []interface{}{"x.pdf", 7.0}, []string{"x.pdf", ""}},
		{"empty string", "", nil},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extFilenames(tt.ext))
		})
	}
}
