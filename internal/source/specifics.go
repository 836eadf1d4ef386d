package source

import "strings"

// Specific is a source-bank quirk applied to the header list before role
// mapping. The set is closed; configurations refer to specifics by name.
type Specific interface {
	Name() string
	RunOnHeaders(headers []string) []string
}

var specificRegistry = map[string]Specific{}

func registerSpecific(s Specific) {
	specificRegistry[s.Name()] = s
}

func init() {
	registerSpecific(trimHeaders{})
	registerSpecific(stripQuotes{})
	registerSpecific(abnAmroHeaders{})
}

// SpecificByName returns the named specific, or nil when unknown.
func SpecificByName(name string) Specific {
	return specificRegistry[strings.ToLower(name)]
}

// trimHeaders removes stray whitespace some banks leave around header names.
type trimHeaders struct{}

func (trimHeaders) Name() string { return "trim" }

func (trimHeaders) RunOnHeaders(headers []string) []string {
	result := make([]string, len(headers))
	for i, h := range headers {
		result[i] = strings.TrimSpace(h)
	}
	return result
}

// stripQuotes removes surrounding single quotes, as exported by SNS.
type stripQuotes struct{}

func (stripQuotes) Name() string { return "sns" }

func (stripQuotes) RunOnHeaders(headers []string) []string {
	result := make([]string, len(headers))
	for i, h := range headers {
		result[i] = strings.Trim(h, "'")
	}
	return result
}

// abnAmroHeaders replaces the header list outright: ABN AMRO exports carry
// no usable header row, the column layout is fixed.
type abnAmroHeaders struct{}

func (abnAmroHeaders) Name() string { return "abnamro" }

func (abnAmroHeaders) RunOnHeaders(headers []string) []string {
	fixed := []string{
		"Account number",
		"Currency",
		"Transaction date",
		"Balance before",
		"Balance after",
		"Interest date",
		"Amount",
		"Description",
	}
	if len(headers) <= len(fixed) {
		return fixed[:len(headers)]
	}
	result := append([]string(nil), fixed...)
	return append(result, headers[len(fixed):]...)
}
