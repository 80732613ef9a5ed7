package event

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Wildcard is the action that matches every event in a namespace.
const Wildcard = "*"

// Name is a parsed "namespace:action" event name.
//
// Parsing happens once at subscribe/emit time so malformed names are
// rejected early instead of leaking into dispatch.
type Name struct {
	Namespace string `json:"namespace"`
	Action    string `json:"action"`
}

// ParseName parses and validates an event name or pattern.
// Both parts must be non-empty; "ns:*" is the wildcard pattern matching
// every action in ns. Names are NFC-normalized.
func ParseName(raw string) (Name, error) {
	raw = norm.NFC.String(raw)
	ns, action, found := strings.Cut(raw, ":")
	if !found || ns == "" || action == "" {
		return Name{}, NewBadNameError(raw)
	}
	if strings.Contains(action, ":") {
		return Name{}, NewBadNameError(raw)
	}
	return Name{Namespace: ns, Action: action}, nil
}

// String returns the "namespace:action" form.
func (n Name) String() string {
	return n.Namespace + ":" + n.Action
}

// IsWildcard reports whether the name is a "ns:*" pattern.
func (n Name) IsWildcard() bool {
	return n.Action == Wildcard
}

// Matches reports whether a concrete event name satisfies this name when
// used as a pattern: exact match, or same namespace for a wildcard.
func (n Name) Matches(event Name) bool {
	if n.Namespace != event.Namespace {
		return false
	}
	return n.IsWildcard() || n.Action == event.Action
}
