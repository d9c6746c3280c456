package inbound

import (
	"context"

	"github.com/jobboard/verification/internal/pkg/router"
	"github.com/jobboard/verification/internal/verification/usecase"
)

type uc interface {
	Issue(ctx context.Context, in usecase.IssueInput) (*usecase.IssueOutput, error)
	Verify(ctx context.Context, in usecase.VerifyInput) (*usecase.VerifyOutput, error)
	Status(ctx context.Context, in usecase.StatusInput) (*usecase.StatusOutput, error)
	Revoke(ctx context.Context, in usecase.RevokeInput) (*usecase.RevokeOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/verification/email/issue", end.Issue)
	r.POST("/api/v1/verification/email/resend", end.Resend)
	r.POST("/api/v1/verification/email/verify", end.Verify)
	r.GET("/api/v1/verification/email/status", end.Status)
	r.POST("/api/v1/verification/email/revoke", end.Revoke)
}
