package transfertohuman

type Input struct {
	Reason       string `json:"reason"`
	Urgency      string `json:"urgency,omitempty"`
	CustomerInfo string `json:"customer_info,omitempty"`
}

type Transfer struct {
	TransferID         string `json:"transfer_id"`
	Reason             string `json:"reason"`
	Urgency            string `json:"urgency"`
	CustomerInfo       string `json:"customer_info"`
	Status             string `json:"status"`
	CreatedAt          string `json:"created_at"`
	EstimatedWaitTime  string `json:"estimated_wait_time"`
	AssignedAgent      string `json:"assigned_agent"`
	QueuePosition      int    `json:"queue_position"`
	NotificationStatus string `json:"notification_status"`
}

type Output struct {
	Success  bool      `json:"success"`
	Transfer *Transfer `json:"transfer"`
	Message  string    `json:"message"`
}
