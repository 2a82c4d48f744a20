package relay

import (
	"encoding/json"
	"fmt"
)

// StateKind tags the variant held by a StateRecord.
type StateKind int

const (
	// StateIdle is the canonical state of any key without a stored record.
	StateIdle StateKind = iota
	StateCollectingProposal
	StateAwaitingFreeMessage
	// StateAdminAwaitingReply is reserved for the admin key.
	StateAdminAwaitingReply
)

var stateNames = map[StateKind]string{
	StateIdle:                "idle",
	StateCollectingProposal:  "collecting_proposal",
	StateAwaitingFreeMessage: "awaiting_free_message",
	StateAdminAwaitingReply:  "admin_awaiting_reply",
}

func (k StateKind) String() string {
	if name, ok := stateNames[k]; ok {
		return name
	}
	return "unknown"
}

// ItemKind tags a proposal item.
type ItemKind string

const (
	ItemText  ItemKind = "text"
	ItemPhoto ItemKind = "photo"
	ItemVideo ItemKind = "video"
)

// ProposalItem is one piece of a proposal; Content is the text for ItemText and
// the platform media reference otherwise.
type ProposalItem struct {
	Kind    ItemKind `json:"type"`
	Content string   `json:"content"`
}

// StateRecord is the persisted conversation state of one identity.
type StateRecord struct {
	Kind   StateKind
	Items  []ProposalItem
	Target UID
}

// Idle returns the empty record.
func Idle() StateRecord { return StateRecord{Kind: StateIdle} }

// CollectingProposal returns a record accumulating the given items.
func CollectingProposal(items ...ProposalItem) StateRecord {
	return StateRecord{Kind: StateCollectingProposal, Items: append([]ProposalItem{}, items...)}
}

// AwaitingFreeMessage returns a record waiting for one free-form message.
func AwaitingFreeMessage() StateRecord { return StateRecord{Kind: StateAwaitingFreeMessage} }

// AdminAwaitingReply returns the admin reply slot bound to target.
func AdminAwaitingReply(target UID) StateRecord {
	return StateRecord{Kind: StateAdminAwaitingReply, Target: target}
}

// IsIdle reports whether the record is the idle state.
func (r StateRecord) IsIdle() bool { return r.Kind == StateIdle }

// stateJSON mirrors the on-disk layout used by earlier deployments of the bot.
type stateJSON struct {
	Proposal         []ProposalItem `json:"proposal,omitempty"`
	AwaitingProposal bool           `json:"awaiting_proposal,omitempty"`
	AwaitingMessage  bool           `json:"awaiting_message,omitempty"`
	ReplyTo          UID            `json:"reply_to,omitempty"`
	AwaitingReply    bool           `json:"awaiting_reply,omitempty"`
}

// MarshalJSON encodes the record in the legacy flag-based layout.
func (r StateRecord) MarshalJSON() ([]byte, error) {
	var out stateJSON
	switch r.Kind {
	case StateIdle:
	case StateCollectingProposal:
		out.AwaitingProposal = true
		out.Proposal = r.Items
		if len(out.Proposal) == 0 {
			// keep "proposal": [] so older readers see an empty list
			return json.Marshal(struct {
				Proposal         []ProposalItem `json:"proposal"`
				AwaitingProposal bool           `json:"awaiting_proposal"`
			}{Proposal: []ProposalItem{}, AwaitingProposal: true})
		}
	case StateAwaitingFreeMessage:
		out.AwaitingMessage = true
	case StateAdminAwaitingReply:
		out.AwaitingReply = true
		out.ReplyTo = r.Target
	default:
		return nil, fmt.Errorf("relay: unknown state kind %d", r.Kind)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the legacy layout. Entries with no raised flag decode as Idle.
func (r *StateRecord) UnmarshalJSON(data []byte) error {
	var in stateJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch {
	case in.AwaitingReply:
		*r = AdminAwaitingReply(in.ReplyTo)
	case in.AwaitingProposal:
		*r = CollectingProposal(in.Proposal...)
	case in.AwaitingMessage:
		*r = AwaitingFreeMessage()
	default:
		*r = Idle()
	}
	return nil
}

// StateMap is the ConversationState store value: identity to record. A missing
// key is Idle; Set never stores Idle records.
type StateMap map[UID]StateRecord

// Get returns the record for uid, or Idle.
func (m StateMap) Get(uid UID) StateRecord {
	if rec, ok := m[uid]; ok {
		return rec
	}
	return Idle()
}

// Set stores rec for uid; an Idle record deletes the entry.
func (m *StateMap) Set(uid UID, rec StateRecord) {
	if rec.IsIdle() {
		delete(*m, uid)
		return
	}
	if *m == nil {
		*m = make(StateMap)
	}
	(*m)[uid] = rec
}

// Clear resets uid to Idle and reports whether a record was present.
func (m *StateMap) Clear(uid UID) bool {
	if _, ok := (*m)[uid]; !ok {
		return false
	}
	delete(*m, uid)
	return true
}

// UnmarshalJSON decodes the map and drops entries that decode as Idle.
func (m *StateMap) UnmarshalJSON(data []byte) error {
	raw := map[UID]StateRecord{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for uid, rec := range raw {
		if rec.IsIdle() {
			delete(raw, uid)
		}
	}
	*m = raw
	return nil
}
