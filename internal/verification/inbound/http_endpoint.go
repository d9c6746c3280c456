package inbound

import (
	"github.com/jobboard/verification/internal/pkg/router"
	"github.com/jobboard/verification/internal/verification/usecase"
)

// HTTPEndpoint exposes the email verification workflow over HTTP.
type HTTPEndpoint struct {
	uc uc
}

// Issue creates a verification code and emails it.
// @Summary Issue verification code
// @Description Generates a new code for the email, replacing any pending one, and tries to deliver it. The call succeeds even when delivery fails; email_sent reports the delivery result and, when enabled, the code is returned for display.
// @Tags Verification
// @Accept json
// @Produce json
// @Param request body IssueRequest true "Issue payload"
// @Success 200 {object} router.successResponse{data=IssueResponse} "Issue result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 503 {object} router.errorResponse "Verification store unavailable" example:{"message":"Verification store unavailable","error":{"reason":"STORE_UNAVAILABLE"}}
// @Router /api/v1/verification/email/issue [post]
func (h *HTTPEndpoint) Issue(r *router.Request) (any, error) {
	var req IssueRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Issue(r.Context(), usecase.IssueInput{
		Email:       req.Email,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return nil, err
	}

	return IssueResponse{
		Accepted:         resp.Accepted,
		EmailSent:        resp.EmailSent,
		ShowCodeToCaller: resp.ShowCode,
		Code:             resp.Code,
		ExpiresInSeconds: resp.ExpiresInSeconds,
		Provider:         resp.Provider,
		FallbackUsed:     resp.FallbackUsed,
		Error:            resp.DeliveryError,
	}, nil
}

// Resend issues a fresh code; it behaves exactly like Issue.
// @Summary Resend verification code
// @Description Same as issue. The previous code stops working.
// @Tags Verification
// @Accept json
// @Produce json
// @Param request body IssueRequest true "Resend payload"
// @Success 200 {object} router.successResponse{data=IssueResponse} "Issue result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 503 {object} router.errorResponse "Verification store unavailable"
// @Router /api/v1/verification/email/resend [post]
func (h *HTTPEndpoint) Resend(r *router.Request) (any, error) {
	return h.Issue(r)
}

// Verify checks a code and marks the email verified.
// @Summary Verify email code
// @Description Consumes the pending code when it matches. Error reasons: NOT_FOUND, NO_PENDING_CODE, EXPIRED, MISMATCH.
// @Tags Verification
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "Verify payload"
// @Success 200 {object} router.successResponse{data=VerifyResponse} "Verified"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Code does not match" example:{"message":"Verification code does not match","error":{"reason":"MISMATCH"}}
// @Failure 404 {object} router.errorResponse "No verification for this email"
// @Failure 409 {object} router.errorResponse "No pending code"
// @Failure 410 {object} router.errorResponse "Code expired"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 503 {object} router.errorResponse "Verification store unavailable"
// @Router /api/v1/verification/email/verify [post]
func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Verify(r.Context(), usecase.VerifyInput{
		Email: req.Email,
		Code:  req.Code,
	})
	if err != nil {
		return nil, err
	}

	return VerifyResponse{Verified: resp.Verified}, nil
}

// Status reports the verification state of an email without changing it.
// @Summary Verification status
// @Tags Verification
// @Produce json
// @Param email query string true "Email address"
// @Success 200 {object} router.successResponse{data=StatusResponse} "Status"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 503 {object} router.errorResponse "Verification store unavailable"
// @Router /api/v1/verification/email/status [get]
func (h *HTTPEndpoint) Status(r *router.Request) (any, error) {
	resp, err := h.uc.Status(r.Context(), usecase.StatusInput{Email: r.GetQuery("email")})
	if err != nil {
		return nil, err
	}

	return StatusResponse{
		Verified:       resp.Verified,
		HasPendingCode: resp.HasPendingCode,
		CodeExpired:    resp.CodeExpired,
	}, nil
}

// Revoke clears the verification state of an email.
// @Summary Revoke verification
// @Description Clears the pending code and the verified flag so verification can start over.
// @Tags Verification
// @Accept json
// @Produce json
// @Param request body RevokeRequest true "Revoke payload"
// @Success 200 {object} router.successResponse{data=RevokeResponse} "Revoke result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 503 {object} router.errorResponse "Verification store unavailable"
// @Router /api/v1/verification/email/revoke [post]
func (h *HTTPEndpoint) Revoke(r *router.Request) (any, error) {
	var req RevokeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Revoke(r.Context(), usecase.RevokeInput{Email: req.Email})
	if err != nil {
		return nil, err
	}

	return RevokeResponse{Revoked: resp.Revoked}, nil
}
