package placeholder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ziadkadry99/pagebuild/internal/store"
)

// Report describes the placeholders a Resolve call could not substitute.
type Report struct {
	// Unresolved lists the tokens left verbatim, in template order.
	Unresolved []Token
}

// Resolve substitutes every data and component placeholder in tmpl. A
// placeholder that cannot be resolved is kept as-is.
func Resolve(tmpl string, data store.Data, fragments store.Fragments) string {
	out, _ := ResolveReport(tmpl, data, fragments)
	return out
}

// ResolveReport is Resolve that also reports the placeholders left in place.
func ResolveReport(tmpl string, data store.Data, fragments store.Fragments) (string, Report) {
	var report Report
	var b strings.Builder
	b.Grow(len(tmpl))

	for _, tok := range Scan(tmpl) {
		switch tok.Kind {
		case Data:
			if value, ok := data.Lookup(strings.Split(tok.Value, ".")); ok {
				b.WriteString(FormatValue(value))
				continue
			}
		case Component:
			if text, ok := fragments[tok.Value]; ok && tok.Value != "" {
				b.WriteString(text)
				continue
			}
		default:
			b.WriteString(tok.Text)
			continue
		}
		report.Unresolved = append(report.Unresolved, tok)
		b.WriteString(tok.Text)
	}
	return b.String(), report
}

// FormatValue renders a data value as page text. Strings are written raw,
// numbers as written in the source document, and objects and arrays as
// compact JSON with sorted keys.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case map[string]any, []any:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return fmt.Sprint(v)
		}
		return strings.TrimSuffix(buf.String(), "\n")
	default:
		return fmt.Sprint(v)
	}
}
