package form

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Field labels the bridge extracts from approval forms. The labels are
// fixed by the approval templates in use, not by this service.
const (
	titleFieldName  = "名称"
	amountFieldName = "金额"
	defaultCurrency = "SEK"
)

// Summary holds the human-readable values derived from a walked form.
// Amount is currency-annotated and may be multi-part for itemized forms.
type Summary struct {
	Title  string
	Amount string
}

// Summarize applies the ordered field-extraction rules over the flattened
// field sequence. Title and amount are independent first-match searches.
// For the amount, a dedicated 金额 amount control always outranks a
// grouping control's summary, regardless of where each sits in the
// document; the grouping-control scan is a fallback only.
//
// Title fallback to the approval's serial number is the caller's job, not
// this function's. Summarize is pure: running it twice over the same
// fields yields the same Summary.
func Summarize(fields []Control) Summary {
	var s Summary
	var listAmount string

	for _, field := range fields {
		if s.Title == "" && field.Name == titleFieldName && field.Type == TypeInput {
			if v, ok := field.Value.(string); ok {
				s.Title = v
			}
			continue
		}

		if s.Amount == "" && field.Name == amountFieldName && field.Type == TypeAmount {
			s.Amount = amountWithCurrency(field)
			continue
		}

		if listAmount == "" && field.Type == TypeFieldList {
			listAmount = amountFromFieldList(field)
		}
	}

	if s.Amount == "" {
		s.Amount = listAmount
	}
	return s
}

// amountWithCurrency renders a plain amount control as "value currency",
// reading the currency code from the control's ext data.
func amountWithCurrency(field Control) string {
	currency := defaultCurrency
	if ext, ok := field.Ext.(map[string]interface{}); ok {
		if c, ok := ext["currency"].(string); ok && c != "" {
			currency = c
		}
	}
	return valueString(field.Value) + " " + currency
}

// amountFromFieldList extracts the monetary summary a fieldList control
// carries in its ext data. The first amount-typed ext entry wins; its
// sumItems field is itself JSON-encoded text holding {value, currency}
// pairs. A sumItems parse failure falls back to the entry's raw value.
func amountFromFieldList(field Control) string {
	ext, ok := field.Ext.([]interface{})
	if !ok {
		return ""
	}

	for _, item := range ext {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if t, _ := m["type"].(string); t != string(TypeAmount) {
			continue
		}

		sumItems, _ := m["sumItems"].(string)
		if sumItems == "" {
			return ""
		}

		var sums []map[string]interface{}
		if err := json.Unmarshal([]byte(sumItems), &sums); err != nil {
			return valueString(m["value"])
		}

		parts := make([]string, 0, len(sums))
		for _, sum := range sums {
			value := valueString(sum["value"])
			currency, _ := sum["currency"].(string)
			parts = append(parts, strings.TrimSpace(value+" "+currency))
		}
		return strings.Join(parts, ", ")
	}

	return ""
}

// valueString coerces the weakly-typed values found in form JSON into
// display strings. JSON numbers decode as float64.
func valueString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case nil:
		return ""
	default:
		return ""
	}
}
