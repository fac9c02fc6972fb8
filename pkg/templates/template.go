package templates

// Template is a named piece of email content: a subject line, optional HTML
// and text bodies, and the list of variable names the content needs to
// render correctly. Templates are immutable once loaded and cached by ID.
type Template struct {
	ID                string
	Name              string
	Subject           string
	HTMLTemplate      string
	TextTemplate      string
	RequiredVariables []string
}

// Known template IDs. Each maps to a transactional email the platform sends.
const (
	BookingConfirmation  = "booking_confirmation"
	BookingAccepted      = "booking_accepted"
	BookingDeclined      = "booking_declined"
	ServiceCompleted     = "service_completed"
	NewBookingRequest    = "new_booking_request"
	PaymentReceived      = "payment_received"
	NewMessage           = "new_message"
	VerificationApproved = "verification_approved"
	VerificationRejected = "verification_rejected"
	CreditsEarned        = "credits_earned"
	WaitlistAvailable    = "waitlist_available"
)

// Validate reports whether data contains every required variable of the
// template. A variable counts as present when its key exists in data, even
// if the value is nil; only absent keys are reported as missing.
func Validate(tpl *Template, data map[string]any) (bool, []string) {
	var missing []string
	for _, name := range tpl.RequiredVariables {
		if _, ok := data[name]; !ok {
			missing = append(missing, name)
		}
	}
	return len(missing) == 0, missing
}
