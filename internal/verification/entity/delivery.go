package entity

// DeliveryRequest is what the orchestrator needs to send one code.
type DeliveryRequest struct {
	Email            string
	DisplayName      string
	Code             string
	ExpiresInMinutes int
}

// DeliveryOutcome records how a code was (or was not) delivered.
type DeliveryOutcome struct {
	Provider        string `json:"provider,omitempty" dynamodbav:"provider,omitempty"`
	Delivered       bool   `json:"delivered" dynamodbav:"delivered"`
	TransportID     string `json:"transport_id,omitempty" dynamodbav:"transport_id,omitempty"`
	Category        string `json:"category,omitempty" dynamodbav:"category,omitempty"`
	Error           string `json:"error,omitempty" dynamodbav:"error,omitempty"`
	FallbackUsed    bool   `json:"fallback_used" dynamodbav:"fallback_used"`
	PrimaryCategory string `json:"primary_category,omitempty" dynamodbav:"primary_category,omitempty"`
	PrimaryError    string `json:"primary_error,omitempty" dynamodbav:"primary_error,omitempty"`
}
