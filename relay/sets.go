package relay

import "strings"

// UIDSet is an insertion-ordered set of identities, persisted as a JSON array.
type UIDSet []UID

// Contains reports membership.
func (s UIDSet) Contains(uid UID) bool {
	for _, v := range s {
		if v == uid {
			return true
		}
	}
	return false
}

// Add appends uid if absent and reports whether the set changed.
func (s *UIDSet) Add(uid UID) bool {
	if s.Contains(uid) {
		return false
	}
	*s = append(*s, uid)
	return true
}

// Remove deletes uid if present and reports whether the set changed.
func (s *UIDSet) Remove(uid UID) bool {
	for i, v := range *s {
		if v == uid {
			*s = append((*s)[:i], (*s)[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of members.
func (s UIDSet) Len() int { return len(s) }

// Join renders members separated by sep.
func (s UIDSet) Join(sep string) string {
	parts := make([]string, 0, len(s))
	for _, v := range s {
		parts = append(parts, v.String())
	}
	return strings.Join(parts, sep)
}

// Settings is the single admin-controlled settings record.
type Settings struct {
	ProposalVisible bool `json:"proposal_visible"`
}

// DefaultSettings returns the settings used when nothing is persisted.
func DefaultSettings() Settings {
	return Settings{ProposalVisible: true}
}
