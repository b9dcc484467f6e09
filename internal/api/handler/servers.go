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
	"github.com/faciam-dev/redisboard/internal/metrics"
	"github.com/faciam-dev/redisboard/internal/permission"
	"github.com/faciam-dev/redisboard/internal/servers"
)

// ServerHandler manages the server registry via REST.
type ServerHandler struct {
	Repo     *servers.Repo
	Recorder *audit.Recorder
	Gate     *permission.Gate
}

type listServersInput struct {
	Label string `query:"label"`
}
type listServersOutput struct{ Body []schema.Server }

type idParam struct {
	ID int64 `path:"id"`
}

type serverOutput struct{ Body schema.Server }

type createServerInput struct{ Body schema.ServerInput }

type updateServerInput struct {
	ID   int64 `path:"id"`
	Body schema.ServerInput
}

// RegisterServers registers server registry endpoints.
func RegisterServers(api huma.API, h *ServerHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "listServers",
		Method:      http.MethodGet,
		Path:        "/v1/servers",
		Summary:     "List servers",
		Tags:        []string{"Server"},
	}, h.list)
	huma.Register(api, huma.Operation{
		OperationID:   "createServer",
		Method:        http.MethodPost,
		Path:          "/v1/servers",
		Summary:       "Register server",
		Tags:          []string{"Server"},
		DefaultStatus: http.StatusCreated,
	}, h.create)
	huma.Register(api, huma.Operation{
		OperationID: "getServer",
		Method:      http.MethodGet,
		Path:        "/v1/servers/{id}",
		Summary:     "Get server",
		Tags:        []string{"Server"},
	}, h.get)
	huma.Register(api, huma.Operation{
		OperationID: "updateServer",
		Method:      http.MethodPut,
		Path:        "/v1/servers/{id}",
		Summary:     "Update server",
		Tags:        []string{"Server"},
	}, h.update)
	huma.Register(api, huma.Operation{
		OperationID:   "deleteServer",
		Method:        http.MethodDelete,
		Path:          "/v1/servers/{id}",
		Summary:       "Delete server",
		Tags:          []string{"Server"},
		DefaultStatus: http.StatusNoContent,
	}, h.delete)
}

func toSchema(s servers.Server) schema.Server {
	return schema.Server{
		ID:          s.ID,
		Label:       s.Label,
		Name:        s.String(),
		Host:        s.Host,
		Port:        s.Port,
		Username:    s.Username,
		HasPassword: s.Password != "",
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func fromInput(in schema.ServerInput) servers.Server {
	return servers.Server{Label: in.Label, Host: in.Host, Port: in.Port, Username: in.Username, Password: in.Password}
}

func (h *ServerHandler) list(ctx context.Context, in *listServersInput) (*listServersOutput, error) {
	user := auth.UserFromContext(ctx)
	list, err := h.Repo.List(ctx, servers.Filter{Label: in.Label})
	if err != nil {
		return nil, err
	}
	res := []schema.Server{}
	for _, s := range list {
		if h.Gate.CanView(user, s.ID) {
			res = append(res, toSchema(s))
		}
	}
	return &listServersOutput{Body: res}, nil
}

func (h *ServerHandler) get(ctx context.Context, in *idParam) (*serverOutput, error) {
	s, err := h.Repo.Get(ctx, in.ID)
	if err != nil {
		return nil, registryErr(err)
	}
	if !h.Gate.CanView(auth.UserFromContext(ctx), s.ID) {
		return nil, huma.Error403Forbidden("You can't view this server.")
	}
	return &serverOutput{Body: toSchema(s)}, nil
}

func (h *ServerHandler) create(ctx context.Context, in *createServerInput) (*serverOutput, error) {
	user := auth.UserFromContext(ctx)
	if !h.Gate.CanManage(user, 0) {
		return nil, huma.Error403Forbidden("You can't register servers.")
	}
	s := fromInput(in.Body)
	if err := s.Validate(); err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	id, err := h.Repo.Create(ctx, s)
	if err != nil {
		return nil, err
	}
	created, err := h.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	h.record(ctx, user, audit.ActionCreate, id, nil, &created)
	return &serverOutput{Body: toSchema(created)}, nil
}

func (h *ServerHandler) update(ctx context.Context, in *updateServerInput) (*serverOutput, error) {
	user := auth.UserFromContext(ctx)
	before, err := h.Repo.Get(ctx, in.ID)
	if err != nil {
		return nil, registryErr(err)
	}
	if !h.Gate.CanManage(user, in.ID) {
		return nil, huma.Error403Forbidden("You can't change this server.")
	}
	s := fromInput(in.Body)
	s.ID = in.ID
	if err := s.Validate(); err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	if err := h.Repo.Update(ctx, s, in.Body.ClearPassword); err != nil {
		return nil, registryErr(err)
	}
	after, err := h.Repo.Get(ctx, in.ID)
	if err != nil {
		return nil, registryErr(err)
	}
	h.record(ctx, user, audit.ActionUpdate, in.ID, &before, &after)
	return &serverOutput{Body: toSchema(after)}, nil
}

func (h *ServerHandler) delete(ctx context.Context, in *idParam) (*struct{}, error) {
	user := auth.UserFromContext(ctx)
	before, err := h.Repo.Get(ctx, in.ID)
	if err != nil {
		return nil, registryErr(err)
	}
	if !h.Gate.CanManage(user, in.ID) {
		return nil, huma.Error403Forbidden("You can't delete this server.")
	}
	if err := h.Repo.Delete(ctx, in.ID); err != nil {
		return nil, registryErr(err)
	}
	h.record(ctx, user, audit.ActionDelete, in.ID, &before, nil)
	return &struct{}{}, nil
}

// record writes an audit entry. A failed write does not fail the change.
func (h *ServerHandler) record(ctx context.Context, user, action string, id int64, before, after *servers.Server) {
	if err := h.Recorder.Write(ctx, user, action, id, before, after); err != nil {
		metrics.AuditErrors.WithLabelValues(action).Inc()
		logger.L.Error("write audit log", "action", action, "server", id, "err", err)
		return
	}
	metrics.AuditEvents.WithLabelValues(action).Inc()
}

func registryErr(err error) error {
	if errors.Is(err, servers.ErrNotFound) {
		return huma.Error404NotFound("server not found")
	}
	return err
}
