package dto

// SendNotificationRequest publishes an ad-hoc notification.
type SendNotificationRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,max=200"`
	Body    string `json:"body" validate:"required,max=5000"`
}
