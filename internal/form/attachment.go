package form

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Attachment describes one file referenced by an approval form. At
// construction at least one of FileToken or DownloadURL is set; Content
// stays nil until the download step fills it in.
type Attachment struct {
	FileToken   string
	Name        string
	MimeType    string
	DownloadURL string
	Content     []byte
}

// resolveAttachmentControl normalizes the heterogeneous attachment shapes
// Feishu produces (raw URL strings, token objects, JSON-encoded strings)
// into a uniform descriptor list. Malformed entries are dropped, never
// escalated: the extraction policy is best effort by design.
func (w *Walker) resolveAttachmentControl(control Control) []Attachment {
	value := control.Value
	if value == nil {
		return nil
	}

	// Value is often a JSON string rather than a decoded structure. A
	// string that fails to decode can still be a single direct URL.
	if s, ok := value.(string); ok {
		if s == "" {
			return nil
		}
		var decoded interface{}
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			if !strings.HasPrefix(s, "http") {
				w.logger.Debug("Discarding non-URL attachment value",
					zap.String("control", control.Name))
				return nil
			}
			value = []interface{}{s}
		} else {
			value = decoded
		}
	}

	names := extFilenames(control.Ext)

	entries, ok := value.([]interface{})
	if !ok {
		entries = []interface{}{value}
	}

	var attachments []Attachment
	for i, entry := range entries {
		switch e := entry.(type) {
		case string:
			if !strings.HasPrefix(e, "http") {
				continue
			}
			attachments = append(attachments, Attachment{
				Name:        nameAt(names, i),
				DownloadURL: e,
			})

		case map[string]interface{}:
			att := Attachment{
				FileToken:   firstString(e, "file_token", "token"),
				Name:        firstString(e, "name", "file_name"),
				DownloadURL: firstString(e, "url", "download_url"),
				MimeType:    firstString(e, "mime_type"),
			}
			if att.FileToken == "" && att.DownloadURL == "" {
				w.logger.Debug("Skipping attachment entry without token or URL",
					zap.String("control", control.Name),
					zap.Int("index", i))
				continue
			}
			if att.Name == "" {
				att.Name = fallbackName(i)
			}
			attachments = append(attachments, att)

		default:
			// Unknown entry shape, skip it
		}
	}

	return attachments
}

// extFilenames derives candidate filenames from a control's ext field,
// which may be a comma-separated string, a single object carrying a name,
// or already a list.
func extFilenames(ext interface{}) []string {
	switch e := ext.(type) {
	case string:
		if e == "" {
			return nil
		}
		parts := strings.Split(e, ",")
		names := make([]string, len(parts))
		for i, p := range parts {
			names[i] = strings.TrimSpace(p)
		}
		return names

	case map[string]interface{}:
		if name := firstString(e, "name", "file_name"); name != "" {
			return []string{name}
		}
		return nil

	case []interface{}:
		names := make([]string, len(e))
		for i, v := range e {
			if s, ok := v.(string); ok {
				names[i] = s
			}
		}
		return names
	}

	return nil
}

// nameAt returns the positional ext filename, falling back to the
// generated attachment_{i+1} name when absent.
func nameAt(names []string, i int) string {
	if i < len(names) && names[i] != "" {
		return names[i]
	}
	return fallbackName(i)
}

func fallbackName(i int) string {
	return fmt.Sprintf("attachment_%d", i+1)
}

// firstString returns the first present non-empty string among the given
// keys of a decoded JSON object.
func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
