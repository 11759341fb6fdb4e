// Dispatcher: the single entry point for inbound user traffic.
//
// Control flow per message: an input first goes to the conversation engine;
// if the user has an active flow it is consumed as that flow's next step,
// otherwise it is parsed as a command that may start a new flow, call the
// scheduling engine, or issue an export link. Button presses bypass the
// conversation engine entirely and drive appointment decisions.
package bot

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-calendar-backend/internal/conversation"
	"github.com/tbourn/go-calendar-backend/internal/domain"
	"github.com/tbourn/go-calendar-backend/internal/export"
	"github.com/tbourn/go-calendar-backend/internal/services"
)

// Message is one inbound user utterance. Profile fields accompany every
// message on the wire and are only read by /register.
type Message struct {
	From      int64
	Username  string
	FirstName string
	LastName  string
	Text      string
}

// Dispatcher routes inbound messages and button presses to the conversation
// engine and services, and emits outbound sends through the Gateway.
// Safe for concurrent use: per-identity serialization lives in the
// conversation manager, cross-identity atomicity in the scheduling service.
type Dispatcher struct {
	Conv       *conversation.Manager
	Users      *services.UserService
	Events     *services.EventService
	Scheduling *services.SchedulingService
	Stats      *services.StatsService
	Signer     *export.Signer
	Gateway    Gateway

	// ExportBaseURL is the public base of the redemption endpoint; the token
	// and format are appended as query parameters.
	ExportBaseURL string

	Log zerolog.Logger
}

const helpText = `Calendar bot commands:
/register — create your account
/create_event — create an event (dialog: title → date → time → details)
/display_events — list your events
/read_event <id> — show one event
/edit_event [<id> <new details>] — edit a description (dialog without args)
/delete_event [<id>] — delete an event (dialog without args)
/share_event — make an event public or private (dialog)
/invite — invite another user to a meeting (dialog)
/appointments — list your meetings
/export [csv|json] — get a time-limited download link
/cancel — abort the current dialog`

// OnMessage consumes one inbound text message.
func (d *Dispatcher) OnMessage(ctx context.Context, msg Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if strings.HasPrefix(text, "/") {
		d.command(ctx, msg, text)
		return
	}

	out := d.Conv.Submit(msg.From, text)
	switch out.Kind {
	case conversation.OutcomeNoSession:
		d.send(ctx, msg.From, "Unrecognized input. Use /help for the command list.")
	case conversation.OutcomeAdvance:
		d.send(ctx, msg.From, out.Prompt)
	case conversation.OutcomeFail:
		d.send(ctx, msg.From, out.Reason+"\n"+out.Prompt)
	case conversation.OutcomeCancelled:
		d.send(ctx, msg.From, "Operation cancelled.")
	case conversation.OutcomeComplete:
		d.complete(ctx, msg.From, out.Flow, out.Fields)
	}
}

// OnButton consumes one inline-button press.
func (d *Dispatcher) OnButton(ctx context.Context, from int64, data string) {
	var (
		decision services.Decision
		apptID   string
	)
	switch {
	case strings.HasPrefix(data, buttonConfirmPrefix):
		decision, apptID = services.DecisionConfirm, strings.TrimPrefix(data, buttonConfirmPrefix)
	case strings.HasPrefix(data, buttonDeclinePrefix):
		decision, apptID = services.DecisionDecline, strings.TrimPrefix(data, buttonDeclinePrefix)
	default:
		d.Log.Warn().Int64("identity", from).Str("data", data).Msg("unknown button payload")
		return
	}

	appt, err := d.Scheduling.Respond(ctx, apptID, from, decision)
	switch {
	case errors.Is(err, services.ErrAppointmentNotFound):
		d.send(ctx, from, "Meeting not found.")
	case errors.Is(err, services.ErrNotParticipant):
		d.send(ctx, from, "You are not the participant of this meeting.")
	case errors.Is(err, services.ErrInvalidTransition):
		d.send(ctx, from, "This meeting has already been decided.")
	case err != nil:
		d.send(ctx, from, "Could not update the meeting, please try again later.")
	case appt.Status == domain.StatusConfirmed:
		d.send(ctx, from, "Meeting confirmed.")
		d.send(ctx, appt.OrganizerID, fmt.Sprintf("Participant %d confirmed the meeting on %s %s.", from, appt.Date, appt.Time))
	default:
		d.send(ctx, from, "Meeting declined.")
		d.send(ctx, appt.OrganizerID, fmt.Sprintf("Participant %d declined the meeting on %s %s.", from, appt.Date, appt.Time))
	}
}

// command parses and executes a bare command.
func (d *Dispatcher) command(ctx context.Context, msg Message, text string) {
	id := msg.From
	fields := strings.Fields(text)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "/start", "/help":
		d.send(ctx, id, helpText)

	case "/register":
		_, created, err := d.Users.Register(ctx, id, msg.Username, msg.FirstName, msg.LastName)
		if err != nil {
			d.send(ctx, id, "Registration failed, please try again later.")
			return
		}
		if created {
			d.recordStat(ctx, d.Stats.RecordNewUser(ctx))
		}
		d.send(ctx, id, "Registration complete. You can now create events.")

	case "/cancel":
		d.Conv.Cancel(id)
		d.send(ctx, id, "Operation cancelled.")

	case "/create_event":
		d.startFlow(ctx, id, conversation.FlowCreate)

	case "/edit_event":
		// One-line form: /edit_event <id> <new details...>
		if len(args) >= 2 {
			if !d.ensureRegistered(ctx, id) {
				return
			}
			d.applyEdit(ctx, id, args[0], strings.Join(args[1:], " "))
			return
		}
		d.startFlow(ctx, id, conversation.FlowEdit)

	case "/delete_event":
		if len(args) == 1 {
			if !d.ensureRegistered(ctx, id) {
				return
			}
			d.applyDelete(ctx, id, args[0])
			return
		}
		d.startFlow(ctx, id, conversation.FlowDelete)

	case "/share_event":
		d.startFlow(ctx, id, conversation.FlowShare)

	case "/invite":
		d.startFlow(ctx, id, conversation.FlowInvite)

	case "/display_events":
		if !d.ensureRegistered(ctx, id) {
			return
		}
		events, err := d.Events.List(ctx, id)
		if err != nil {
			d.send(ctx, id, "Could not load your events, please try again later.")
			return
		}
		d.send(ctx, id, formatEventList(events))

	case "/read_event":
		if !d.ensureRegistered(ctx, id) {
			return
		}
		if len(args) != 1 {
			d.send(ctx, id, "Usage: /read_event <id>")
			return
		}
		ev, err := d.Events.Get(ctx, id, args[0])
		if err != nil {
			d.send(ctx, id, eventFailureText(err))
			return
		}
		d.send(ctx, id, formatEvent(ev))

	case "/appointments":
		if !d.ensureRegistered(ctx, id) {
			return
		}
		appts, err := d.Scheduling.ListForIdentity(ctx, id)
		if err != nil {
			d.send(ctx, id, "Could not load your meetings, please try again later.")
			return
		}
		d.send(ctx, id, formatAppointmentList(appts))

	case "/export":
		if !d.ensureRegistered(ctx, id) {
			return
		}
		format := "json"
		if len(args) == 1 && strings.EqualFold(args[0], "csv") {
			format = "csv"
		}
		link := d.exportLink(id, format)
		d.send(ctx, id, "Your download link (valid for a limited time):\n"+link)

	default:
		d.send(ctx, id, "Unknown command. Use /help for the command list.")
	}
}

// startFlow gates the dialog on registration and sends the first prompt.
func (d *Dispatcher) startFlow(ctx context.Context, id int64, flow conversation.Flow) {
	if !d.ensureRegistered(ctx, id) {
		return
	}
	prompt, ok := d.Conv.StartFlow(id, flow)
	if !ok {
		d.send(ctx, id, "Unknown command. Use /help for the command list.")
		return
	}
	d.send(ctx, id, prompt)
}

// complete executes a finished dialog's side effects.
func (d *Dispatcher) complete(ctx context.Context, id int64, flow conversation.Flow, fields map[string]string) {
	switch flow {
	case conversation.FlowCreate:
		ev, err := d.Events.Create(ctx, id,
			fields[conversation.FieldTitle],
			fields[conversation.FieldDate],
			fields[conversation.FieldTime],
			fields[conversation.FieldDetails],
		)
		if err != nil {
			d.send(ctx, id, "Could not create the event: "+err.Error())
			return
		}
		d.recordStat(ctx, d.Stats.RecordEventCreated(ctx, id))
		d.send(ctx, id, "Event created. ID: "+ev.ID)

	case conversation.FlowEdit:
		d.applyEdit(ctx, id, fields[conversation.FieldEventID], fields[conversation.FieldNewDetails])

	case conversation.FlowDelete:
		d.applyDelete(ctx, id, fields[conversation.FieldEventID])

	case conversation.FlowShare:
		public := fields[conversation.FieldVisibility] == "true"
		if err := d.Events.SetVisibility(ctx, id, fields[conversation.FieldEventID], public); err != nil {
			d.send(ctx, id, eventFailureText(err))
			return
		}
		if public {
			d.send(ctx, id, "Event is now public.")
		} else {
			d.send(ctx, id, "Event is now private.")
		}

	case conversation.FlowInvite:
		d.completeInvite(ctx, id, fields)
	}
}

// completeInvite creates the appointment and delivers the invitation.
func (d *Dispatcher) completeInvite(ctx context.Context, organizerID int64, fields map[string]string) {
	participantID := parseIdentity(fields[conversation.FieldParticipantID])
	if participantID == organizerID {
		d.send(ctx, organizerID, "You cannot invite yourself.")
		return
	}

	appt, err := d.Scheduling.CreateInvite(ctx, organizerID, participantID,
		fields[conversation.FieldEventID], "", "", fields[conversation.FieldDetails])
	switch {
	case errors.Is(err, services.ErrBusy):
		d.send(ctx, organizerID, "The participant is busy at that time.")
		return
	case errors.Is(err, services.ErrNotOwner):
		d.send(ctx, organizerID, "Event not found.")
		return
	case errors.Is(err, services.ErrSelfInvite):
		d.send(ctx, organizerID, "You cannot invite yourself.")
		return
	case err != nil:
		d.send(ctx, organizerID, "Could not create the invitation, please try again later.")
		return
	}

	invite := fmt.Sprintf("You are invited to a meeting:\n\nWhen: %s %s\nDetails: %s\nOrganizer: %d",
		appt.Date, appt.Time, appt.Details, organizerID)
	if err := d.Gateway.Send(ctx, participantID, invite, ConfirmButton(appt.ID), DeclineButton(appt.ID)); err != nil {
		// Undeliverable invite: cancel so the slot is not held by a message
		// nobody saw.
		d.Log.Warn().Err(err).Str("appointment_id", appt.ID).Msg("invite delivery failed")
		if _, cerr := d.Scheduling.Cancel(ctx, appt.ID, organizerID); cerr != nil {
			d.Log.Error().Err(cerr).Str("appointment_id", appt.ID).Msg("cancel after failed delivery")
		}
		d.send(ctx, organizerID, "The invitation could not be delivered (the participant may not have started the bot).")
		return
	}
	d.send(ctx, organizerID, "Invitation sent. Status: pending.")
}

// applyEdit updates an event description and counts the edit.
func (d *Dispatcher) applyEdit(ctx context.Context, id int64, eventID, details string) {
	if err := d.Events.UpdateDetails(ctx, id, eventID, details); err != nil {
		d.send(ctx, id, eventFailureText(err))
		return
	}
	d.recordStat(ctx, d.Stats.RecordEventEdited(ctx, id))
	d.send(ctx, id, "Updated.")
}

// applyDelete removes an event and counts the deletion.
func (d *Dispatcher) applyDelete(ctx context.Context, id int64, eventID string) {
	if err := d.Events.Delete(ctx, id, eventID); err != nil {
		d.send(ctx, id, eventFailureText(err))
		return
	}
	d.recordStat(ctx, d.Stats.RecordEventDeleted(ctx, id))
	d.send(ctx, id, "Deleted.")
}

// eventFailureText renders an event service error for chat. A storage outage
// is reported as such, never as a missing event.
func eventFailureText(err error) string {
	if errors.Is(err, services.ErrStorageUnavailable) {
		return "The service is temporarily unavailable, please try again later."
	}
	return "Event not found."
}

// ensureRegistered checks registration and nags about /register when missing.
func (d *Dispatcher) ensureRegistered(ctx context.Context, id int64) bool {
	ok, err := d.Users.Exists(ctx, id)
	if err != nil {
		d.send(ctx, id, "The service is temporarily unavailable, please try again later.")
		return false
	}
	if !ok {
		d.send(ctx, id, "Please register first: /register")
		return false
	}
	return true
}

// exportLink builds the redemption URL for a fresh capability token.
func (d *Dispatcher) exportLink(id int64, format string) string {
	q := url.Values{}
	q.Set("token", d.Signer.Issue(id))
	q.Set("format", format)
	return strings.TrimRight(d.ExportBaseURL, "/") + "/export?" + q.Encode()
}

// send emits an outbound message. Delivery is fire-and-forget here: failures
// are logged and never block the caller, invite delivery being the one case
// handled specially above.
func (d *Dispatcher) send(ctx context.Context, to int64, text string, buttons ...Button) {
	if err := d.Gateway.Send(ctx, to, text, buttons...); err != nil {
		d.Log.Warn().Err(err).Int64("to", to).Msg("outbound send failed")
	}
}

// recordStat logs and swallows statistics errors; counters are best effort.
func (d *Dispatcher) recordStat(ctx context.Context, err error) {
	if err != nil {
		d.Log.Warn().Err(err).Msg("stats increment failed")
	}
}

func parseIdentity(s string) int64 {
	var n int64
	fmt.Sscanf(s, "%d", &n)
	return n
}

// formatEvent renders one event for chat display.
func formatEvent(ev *domain.Event) string {
	return fmt.Sprintf("Event %s: %s\nDate: %s\nTime: %s\nDetails: %s", ev.ID, ev.Title, ev.Date, ev.Time, ev.Details)
}

// formatEventList renders the owner's events, one per line.
func formatEventList(events []domain.Event) string {
	if len(events) == 0 {
		return "No events yet."
	}
	var b strings.Builder
	b.WriteString("Your events:")
	for _, ev := range events {
		fmt.Fprintf(&b, "\n%s | %s %s | %s", ev.ID, ev.Date, ev.Time, ev.Title)
	}
	return b.String()
}

// formatAppointmentList renders the identity's meetings, one per line.
func formatAppointmentList(appts []domain.Appointment) string {
	if len(appts) == 0 {
		return "No meetings yet."
	}
	var b strings.Builder
	b.WriteString("Your meetings:")
	for _, a := range appts {
		fmt.Fprintf(&b, "\n%s | %s %s | %s | %d → %d", a.ID, a.Date, a.Time, a.Status, a.OrganizerID, a.ParticipantID)
	}
	return b.String()
}
