package payments

// WebhookPayload is the casso webhook envelope. The raw body is validated
// into this shape at the boundary; nothing downstream touches untyped
// payment data.
type WebhookPayload struct {
	Error int           `json:"error"`
	Data  []Transaction `json:"data" binding:"required,min=1,dive"`
}

// Transaction is one bank transfer reported by casso
type Transaction struct {
	ID          int64   `json:"id"`
	TID         string  `json:"tid" binding:"required"`
	Description string  `json:"description" binding:"required"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	When        string  `json:"when"`
}

// TransactionResult reports what happened to one transaction in a delivery
type TransactionResult struct {
	TID    string `json:"tid"`
	Code   string `json:"code,omitempty"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}
