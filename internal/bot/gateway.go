// Package bot wires inbound messaging-platform traffic to the conversation
// engine and the application services, and produces outbound send intents.
//
// The transport itself stays behind the Gateway interface: the dispatcher
// only ever says "send this text (and maybe these buttons) to identity X" and
// consumes "identity X said / clicked Y" events. Anything speaking an actual
// messenger protocol implements Gateway outside this package.
package bot

import "context"

// Button is an inline action attached to an outbound message. Data is echoed
// back verbatim through OnButton when the user presses it.
type Button struct {
	Label string
	Data  string
}

// Gateway delivers outbound messages. Implementations must be safe for
// concurrent use. A Send error means the message could not be handed to the
// platform; the dispatcher treats that as non-fatal except for fresh
// invitations, which it cancels so the slot is not held by a message nobody
// saw.
type Gateway interface {
	Send(ctx context.Context, to int64, text string, buttons ...Button) error
}

// Button callback data values understood by the dispatcher. The scheduling
// buttons are exactly two, each carrying the appointment id.
const (
	buttonConfirmPrefix = "appt:ok:"
	buttonDeclinePrefix = "appt:no:"
)

// ConfirmButton builds the confirm action for an appointment.
func ConfirmButton(apptID string) Button {
	return Button{Label: "Confirm", Data: buttonConfirmPrefix + apptID}
}

// DeclineButton builds the decline action for an appointment.
func DeclineButton(apptID string) Button {
	return Button{Label: "Decline", Data: buttonDeclinePrefix + apptID}
}
