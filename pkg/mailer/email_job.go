package mailer

// EmailJob is the payload handed to a delivery transport. Either the literal
// Subject/Text/HTML are sent as is, or Template names a set of embedded
// templates rendered with Data.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}
