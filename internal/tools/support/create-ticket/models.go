package createticket

type Input struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Priority      string `json:"priority,omitempty"`
	Category      string `json:"category,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
	AssignedTo    string `json:"assigned_to,omitempty"`
}

type Ticket struct {
	TicketID            string `json:"ticket_id"`
	Title               string `json:"title"`
	Description         string `json:"description"`
	Priority            string `json:"priority"`
	Category            string `json:"category"`
	CustomerEmail       string `json:"customer_email"`
	AssignedTo          string `json:"assigned_to"`
	Status              string `json:"status"`
	CreatedAt           string `json:"created_at"`
	EstimatedResolution string `json:"estimated_resolution"`
}

type Output struct {
	Success bool    `json:"success"`
	Ticket  *Ticket `json:"ticket"`
	Message string  `json:"message"`
}
