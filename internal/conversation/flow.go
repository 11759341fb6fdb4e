// Package conversation implements the multi-step dialog engine that drives
// every bot interaction requiring more than one input: creating, editing,
// deleting, and sharing events, and inviting another user to a meeting.
//
// A dialog is a Flow: a fixed, ordered sequence of Steps. Each step names the
// field it collects, the prompt shown to the user, and the Kind of input it
// accepts. Flows are data, not code: adding a dialog means declaring a new
// step slice here, the Manager needs no changes.
//
// At most one session exists per identity. Sessions live in volatile memory
// behind the Store interface and carry no durability guarantee across
// process restarts.
package conversation

// Flow identifies which dialog an identity is currently in.
type Flow int

// Known flows. FlowNone means no dialog is active.
const (
	FlowNone Flow = iota
	FlowCreate
	FlowEdit
	FlowDelete
	FlowInvite
	FlowShare
)

// String returns a stable name for logs and metrics.
func (f Flow) String() string {
	switch f {
	case FlowCreate:
		return "create"
	case FlowEdit:
		return "edit"
	case FlowDelete:
		return "delete"
	case FlowInvite:
		return "invite"
	case FlowShare:
		return "share"
	default:
		return "none"
	}
}

// Kind describes how a step's raw input is parsed and validated.
type Kind int

// Step input kinds.
const (
	// KindText accepts any non-empty free text.
	KindText Kind = iota
	// KindDate accepts a calendar date in domain.DateLayout (2006-01-02).
	KindDate
	// KindTime accepts a clock time in domain.TimeLayout (15:04).
	KindTime
	// KindIdentity accepts a positive integer user id.
	KindIdentity
	// KindEventID accepts an event UUID.
	KindEventID
	// KindOptionalText accepts free text, or the skip keyword for an empty value.
	KindOptionalText
	// KindYesNo accepts yes/no (and a few synonyms), normalized to "true"/"false".
	KindYesNo
)

// Step is one question in a flow.
type Step struct {
	// Field is the key the parsed value is stored under in the session data.
	Field string
	// Prompt is sent to the user when this step becomes current, and again
	// after a failed parse.
	Prompt string
	// Kind selects the parser for this step's input.
	Kind Kind
}

// Field names collected by the built-in flows.
const (
	FieldTitle         = "title"
	FieldDate          = "date"
	FieldTime          = "time"
	FieldDetails       = "details"
	FieldEventID       = "event_id"
	FieldNewDetails    = "new_details"
	FieldParticipantID = "participant_id"
	FieldVisibility    = "visibility"
)

// flowSteps holds the fixed step sequence of every flow.
var flowSteps = map[Flow][]Step{
	FlowCreate: {
		{Field: FieldTitle, Prompt: "Enter the event title:", Kind: KindText},
		{Field: FieldDate, Prompt: "Enter the date (YYYY-MM-DD):", Kind: KindDate},
		{Field: FieldTime, Prompt: "Enter the time (HH:MM):", Kind: KindTime},
		{Field: FieldDetails, Prompt: "Enter the event description:", Kind: KindText},
	},
	FlowEdit: {
		{Field: FieldEventID, Prompt: "Enter the ID of the event to edit:", Kind: KindEventID},
		{Field: FieldNewDetails, Prompt: "Enter the new description:", Kind: KindText},
	},
	FlowDelete: {
		{Field: FieldEventID, Prompt: "Enter the ID of the event to delete:", Kind: KindEventID},
	},
	FlowInvite: {
		{Field: FieldParticipantID, Prompt: "Enter the participant's user ID (a number):", Kind: KindIdentity},
		{Field: FieldEventID, Prompt: "Enter the ID of your event:", Kind: KindEventID},
		{Field: FieldDetails, Prompt: "Add a note for the participant, or reply \"skip\":", Kind: KindOptionalText},
	},
	FlowShare: {
		{Field: FieldEventID, Prompt: "Enter the ID of the event to share:", Kind: KindEventID},
		{Field: FieldVisibility, Prompt: "Make it public? (yes/no):", Kind: KindYesNo},
	},
}

// Steps returns the fixed step sequence of a flow, or nil for FlowNone and
// unknown flows.
func (f Flow) Steps() []Step {
	return flowSteps[f]
}
