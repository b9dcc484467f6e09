package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/faciam-dev/redisboard/internal/api/schema"
	"github.com/faciam-dev/redisboard/internal/audit"
	"github.com/faciam-dev/redisboard/internal/auth"
	"github.com/faciam-dev/redisboard/internal/logger"
	"github.com/faciam-dev/redisboard/internal/permission"
)

// AuditHandler exposes the registry audit log.
type AuditHandler struct {
	Recorder *audit.Recorder
	Gate     *permission.Gate
}

type auditListParams struct {
	Limit int `query:"limit" minimum:"0" maximum:"500"`
}

type auditListOutput struct{ Body []schema.AuditLog }

type auditGetParams struct {
	ID string `path:"id"`
}

type auditDiffOutput struct{ Body audit.Diff }

// RegisterAudit registers audit log endpoints.
func RegisterAudit(api huma.API, h *AuditHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "listAuditLogs",
		Method:      http.MethodGet,
		Path:        "/v1/audit-logs",
		Summary:     "List audit logs",
		Tags:        []string{"Audit"},
	}, h.list)

	huma.Register(api, huma.Operation{
		OperationID: "getAuditDiff",
		Method:      http.MethodGet,
		Path:        "/v1/audit-logs/{id}/diff",
		Summary:     "Get unified diff for an audit log",
		Tags:        []string{"Audit"},
	}, h.diff)
}

func (h *AuditHandler) allowed(ctx context.Context) bool {
	return h.Gate.CanManage(auth.UserFromContext(ctx), 0)
}

func (h *AuditHandler) list(ctx context.Context, p *auditListParams) (*auditListOutput, error) {
	if !h.allowed(ctx) {
		return nil, huma.Error403Forbidden("You can't read the audit log.")
	}
	entries, err := h.Recorder.List(ctx, p.Limit)
	if err != nil {
		logger.L.Error("list audit logs", "err", err)
		return nil, err
	}
	out := make([]schema.AuditLog, len(entries))
	for i, e := range entries {
		out[i] = schema.AuditLog{
			ID:        e.ID,
			Actor:     e.Actor,
			Action:    e.Action,
			ServerID:  e.ServerID,
			Before:    schema.RawJSON(e.BeforeJSON),
			After:     schema.RawJSON(e.AfterJSON),
			CreatedAt: e.CreatedAt,
		}
	}
	return &auditListOutput{Body: out}, nil
}

func (h *AuditHandler) diff(ctx context.Context, p *auditGetParams) (*auditDiffOutput, error) {
	if !h.allowed(ctx) {
		return nil, huma.Error403Forbidden("You can't read the audit log.")
	}
	e, err := h.Recorder.Get(ctx, p.ID)
	if err != nil {
		if errors.Is(err, audit.ErrNotFound) {
			return nil, huma.Error404NotFound("not found")
		}
		return nil, err
	}
	return &auditDiffOutput{Body: audit.DiffOf(e)}, nil
}
