package scheduleappointment

type Input struct {
	Datetime        string `json:"datetime"`
	CustomerEmail   string `json:"customer_email"`
	ServiceType     string `json:"service_type,omitempty"`
	Notes           string `json:"notes,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
}

type Appointment struct {
	AppointmentID    string `json:"appointment_id"`
	Datetime         string `json:"datetime"`
	CustomerEmail    string `json:"customer_email"`
	ServiceType      string `json:"service_type"`
	Notes            string `json:"notes"`
	DurationMinutes  int    `json:"duration_minutes"`
	Status           string `json:"status"`
	CreatedAt        string `json:"created_at"`
	ConfirmationCode string `json:"confirmation_code"`
}

type Output struct {
	Success     bool         `json:"success"`
	Appointment *Appointment `json:"appointment"`
	Message     string       `json:"message"`
}
