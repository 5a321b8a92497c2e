package sendemail

type Input struct {
	To       string   `json:"to"`
	Subject  string   `json:"subject"`
	Body     string   `json:"body"`
	CC       []string `json:"cc,omitempty"`
	BCC      []string `json:"bcc,omitempty"`
	Priority string   `json:"priority,omitempty"`
}

// Message is what a Sender delivers.
type Message struct {
	From     string
	FromName string
	To       string
	CC       []string
	BCC      []string
	Subject  string
	Body     string
	Priority string
}

type Email struct {
	MessageID      string   `json:"message_id"`
	To             string   `json:"to"`
	Subject        string   `json:"subject"`
	Body           string   `json:"body"`
	CC             []string `json:"cc"`
	BCC            []string `json:"bcc"`
	Priority       string   `json:"priority"`
	Status         string   `json:"status"`
	SentAt         string   `json:"sent_at"`
	DeliveryStatus string   `json:"delivery_status"`
	Provider       string   `json:"provider"`
	ProviderID     string   `json:"provider_message_id,omitempty"`
}

type Output struct {
	Success bool   `json:"success"`
	Email   *Email `json:"email"`
	Message string `json:"message"`
}
