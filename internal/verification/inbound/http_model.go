package inbound

type IssueRequest struct {
	Email       string `json:"email" example:"ana@example.com"`
	DisplayName string `json:"display_name,omitempty" example:"Ana"`
}

type IssueResponse struct {
	Accepted         bool   `json:"accepted" example:"true"`
	EmailSent        bool   `json:"email_sent" example:"true"`
	ShowCodeToCaller bool   `json:"show_code_to_caller" example:"false"`
	Code             string `json:"code,omitempty" example:"123456"`
	ExpiresInSeconds int    `json:"expires_in_seconds" example:"300"`
	Provider         string `json:"provider" example:"smtp"`
	FallbackUsed     bool   `json:"fallback_used" example:"false"`
	Error            string `json:"error,omitempty" example:"TRANSPORT_UNAVAILABLE"`
}

func (r IssueResponse) Message() string {
	if r.EmailSent {
		return "Verification code sent. Please check your email."
	}
	return "Verification code created but the email could not be delivered."
}

type VerifyRequest struct {
	Email string `json:"email" example:"ana@example.com"`
	Code  string `json:"code" example:"123456"`
}

type VerifyResponse struct {
	Verified bool `json:"verified" example:"true"`
}

func (VerifyResponse) Message() string {
	return "Email verified."
}

type StatusResponse struct {
	Verified       bool `json:"verified" example:"false"`
	HasPendingCode bool `json:"has_pending_code" example:"true"`
	CodeExpired    bool `json:"code_expired" example:"false"`
}

type RevokeRequest struct {
	Email string `json:"email" example:"ana@example.com"`
}

type RevokeResponse struct {
	Revoked bool `json:"revoked" example:"true"`
}
