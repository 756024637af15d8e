// Package placeholder resolves the {{...}} tokens of a page template against
// the data and fragment stores.
//
// Two grammars share the same delimiters: {{a.b.c}} looks a dotted path up in
// the data, {{component:name}} inserts a fragment. {{CSS_LINKS}} and
// {{JS_SCRIPTS}} are reserved for the asset linker and pass through untouched.
// Substitution is a single linear pass; inserted text is never re-scanned.
package placeholder

import "strings"

// Kind identifies what a Token stands for.
type Kind int

const (
	// Literal is plain template text.
	Literal Kind = iota
	// Data is a {{dotted.path}} lookup.
	Data
	// Component is a {{component:name}} inclusion.
	Component
	// Sentinel is one of the asset sentinels left for the linker.
	Sentinel
)

func (k Kind) String() string {
	switch k {
	case Literal:
		return "literal"
	case Data:
		return "data"
	case Component:
		return "component"
	case Sentinel:
		return "sentinel"
	default:
		return "unknown"
	}
}

const (
	open            = "{{"
	closeDelim      = "}}"
	componentPrefix = "component:"

	// CSSLinks is replaced by the stylesheet markup.
	CSSLinks = "{{CSS_LINKS}}"
	// JSScripts is replaced by the script markup.
	JSScripts = "{{JS_SCRIPTS}}"
)

// Token is one piece of a scanned template.
type Token struct {
	Kind Kind
	// Text is the exact source text of the token.
	Text string
	// Value is the data path for Data tokens and the fragment name for
	// Component tokens. It is empty otherwise.
	Value string
}

// Scan splits src into tokens, left to right. A placeholder is "{{", one or
// more characters other than '}', then "}}". Anything that does not form a
// placeholder is literal text. Adjacent literal text is merged into one token,
// so concatenating every Token.Text reproduces src exactly.
func Scan(src string) []Token {
	var tokens []Token
	litStart := 0
	i := 0
	for i < len(src) {
		if !strings.HasPrefix(src[i:], open) {
			i++
			continue
		}
		end := strings.IndexByte(src[i+len(open):], '}')
		if end < 0 {
			// No closing brace anywhere: the rest is literal.
			break
		}
		closeAt := i + len(open) + end
		if end == 0 || !strings.HasPrefix(src[closeAt:], closeDelim) {
			i++
			continue
		}

		if litStart < i {
			tokens = append(tokens, Token{Kind: Literal, Text: src[litStart:i]})
		}
		tokens = append(tokens, classify(src[i:closeAt+len(closeDelim)], src[i+len(open):closeAt]))
		i = closeAt + len(closeDelim)
		litStart = i
	}
	if litStart < len(src) {
		tokens = append(tokens, Token{Kind: Literal, Text: src[litStart:]})
	}
	return tokens
}

func classify(raw, content string) Token {
	switch {
	case raw == CSSLinks || raw == JSScripts:
		return Token{Kind: Sentinel, Text: raw}
	case strings.HasPrefix(content, componentPrefix):
		return Token{Kind: Component, Text: raw, Value: strings.TrimPrefix(content, componentPrefix)}
	default:
		return Token{Kind: Data, Text: raw, Value: content}
	}
}
