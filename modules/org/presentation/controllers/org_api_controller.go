package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/kadrohq/kadro/modules/org/domain/aggregates/organization"
	"github.com/kadrohq/kadro/modules/org/services"
	"github.com/kadrohq/kadro/pkg/httpapi"
)

type OrganizationResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Code      string  `json:"code,omitempty"`
	Type      string  `json:"type"`
	ParentID  *string `json:"parent_id"`
	SortOrder int     `json:"sort_order"`
	IsActive  bool    `json:"is_active"`
}

func toOrganizationResponse(o *organization.Organization) OrganizationResponse {
	var parentID *string
	if o.ParentID() != nil {
		s := o.ParentID().String()
		parentID = &s
	}
	return OrganizationResponse{
		ID:        o.ID().String(),
		Name:      o.Name(),
		Code:      o.CodeOrEmpty(),
		Type:      string(o.Type()),
		ParentID:  parentID,
		SortOrder: o.SortOrder(),
		IsActive:  o.IsActive(),
	}
}

type OrgAPIController struct {
	orgs *services.OrgService
	gate *services.TenantGate
	log  *logrus.Logger
}

func NewOrgAPIController(orgs *services.OrgService, gate *services.TenantGate, log *logrus.Logger) *OrgAPIController {
	return &OrgAPIController{orgs: orgs, gate: gate, log: log}
}

func (c *OrgAPIController) Key() string {
	return "/api/org"
}

func (c *OrgAPIController) Register(r *mux.Router) {
	sub := r.PathPrefix("/api/org/organizations").Subrouter()
	sub.HandleFunc("", c.create).Methods(http.MethodPost)
	sub.HandleFunc("/{id}", c.get).Methods(http.MethodGet)
	sub.HandleFunc("/{id}/descendants", c.descendants).Methods(http.MethodGet)
	sub.HandleFunc("/{id}/ancestors", c.ancestors).Methods(http.MethodGet)
	sub.HandleFunc("/{id}/reparent", c.reparent).Methods(http.MethodPost)
	sub.HandleFunc("/{id}/deactivate", c.deactivate).Methods(http.MethodPost)
	sub.HandleFunc("/reorder", c.reorder).Methods(http.MethodPost)
}

func (c *OrgAPIController) create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string  `json:"name"`
		Code     string  `json:"code"`
		Type     string  `json:"type"`
		ParentID *string `json:"parent_id"`
	}
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.WriteJSON(w, http.StatusBadRequest, map[string]string{"code": "BAD_JSON", "message": err.Error()})
		return
	}

	dto := services.CreateOrganizationDTO{
		Name: body.Name,
		Code: body.Code,
		Type: body.Type,
	}
	if body.ParentID != nil {
		parentID, err := uuid.Parse(*body.ParentID)
		if err != nil {
			httpapi.WriteJSON(w, http.StatusBadRequest, map[string]string{"code": "BAD_UUID", "message": err.Error()})
			return
		}
		dto.ParentID = &parentID
	}

	created, err := c.orgs.Create(r.Context(), &dto)
	if err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, toOrganizationResponse(created))
}

func (c *OrgAPIController) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		httpapi.WriteJSON(w, http.StatusBadRequest, map[string]string{"code": "BAD_UUID", "message": err.Error()})
		return
	}
	org, err := c.orgs.GetByID(r.Context(), id)
	if err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toOrganizationResponse(org))
}

func (c *OrgAPIController) descendants(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		httpapi.WriteJSON(w, http.StatusBadRequest, map[string]string{"code": "BAD_UUID", "message": err.Error()})
		return
	}
	ids, err := c.orgs.Descendants(r.Context(), id)
	if err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string][]uuid.UUID{"descendants": ids})
}

func (c *OrgAPIController) ancestors(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		httpapi.WriteJSON(w, http.StatusBadRequest, map[string]string{"code": "BAD_UUID", "message": err.Error()})
		return
	}
	ids, err := c.orgs.Ancestors(r.Context(), id)
	if err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string][]uuid.UUID{"ancestors": ids})
}

func (c *OrgAPIController) reparent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		httpapi.WriteJSON(w, http.StatusBadRequest, map[string]string{"code": "BAD_UUID", "message": err.Error()})
		return
	}
	var body struct {
		ParentID *string `json:"parent_id"`
	}
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.WriteJSON(w, http.StatusBadRequest, map[string]string{"code": "BAD_JSON", "message": err.Error()})
		return
	}

	var parentID *uuid.UUID
	if body.ParentID != nil {
		parsed, err := uuid.Parse(*body.ParentID)
		if err != nil {
			httpapi.WriteJSON(w, http.StatusBadRequest, map[string]string{"code": "BAD_UUID", "message": err.Error()})
			return
		}
		parentID = &parsed
	}

	if err := c.orgs.Reparent(r.Context(), id, parentID); err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusNoContent, nil)
}

func (c *OrgAPIController) reorder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ParentID   *string  `json:"parent_id"`
		OrderedIDs []string `json:"ordered_ids"`
	}
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.WriteJSON(w, http.StatusBadRequest, map[string]string{"code": "BAD_JSON", "message": err.Error()})
		return
	}

	var parentID *uuid.UUID
	if body.ParentID != nil {
		parsed, err := uuid.Parse(*body.ParentID)
		if err != nil {
			httpapi.WriteJSON(w, http.StatusBadRequest, map[string]string{"code": "BAD_UUID", "message": err.Error()})
			return
		}
		parentID = &parsed
	}
	orderedIDs := make([]uuid.UUID, 0, len(body.OrderedIDs))
	for _, raw := range body.OrderedIDs {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			httpapi.WriteJSON(w, http.StatusBadRequest, map[string]string{"code": "BAD_UUID", "message": err.Error()})
			return
		}
		orderedIDs = append(orderedIDs, parsed)
	}

	if err := c.orgs.Reorder(r.Context(), parentID, orderedIDs); err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusNoContent, nil)
}

func (c *OrgAPIController) deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		httpapi.WriteJSON(w, http.StatusBadRequest, map[string]string{"code": "BAD_UUID", "message": err.Error()})
		return
	}
	cascade := r.URL.Query().Get("cascade") == "true"
	if err := c.orgs.Deactivate(r.Context(), id, cascade); err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusNoContent, nil)
}
