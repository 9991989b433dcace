package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/kadrohq/kadro/modules/hrm/domain/aggregates/employee"
	"github.com/kadrohq/kadro/modules/hrm/services"
	"github.com/kadrohq/kadro/pkg/httpapi"
)

type EmployeeResponse struct {
	ID             string `json:"id"`
	OrgID          string `json:"org_id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email,omitempty"`
	EmployeeNumber string `json:"employee_number"`
	IsActive       bool   `json:"is_active"`
}

func toEmployeeResponse(e *employee.Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:             e.ID().String(),
		OrgID:          e.OrgID().String(),
		FirstName:      e.FirstName(),
		LastName:       e.LastName(),
		Email:          e.Email(),
		EmployeeNumber: e.EmployeeNumber(),
		IsActive:       e.IsActive(),
	}
}

type HRMAPIController struct {
	employees *services.EmployeeService
	log       *logrus.Logger
}

func NewHRMAPIController(employees *services.EmployeeService, log *logrus.Logger) *HRMAPIController {
	return &HRMAPIController{employees: employees, log: log}
}

func (c *HRMAPIController) Key() string {
	return "/api/hrm"
}

func (c *HRMAPIController) Register(r *mux.Router) {
	sub := r.PathPrefix("/api/hrm/employees").Subrouter()
	sub.HandleFunc("", c.hire).Methods(http.MethodPost)
	sub.HandleFunc("", c.list).Methods(http.MethodGet)
	sub.HandleFunc("/{id}", c.get).Methods(http.MethodGet)
	sub.HandleFunc("/{id}/transfer", c.transfer).Methods(http.MethodPost)
	sub.HandleFunc("/{id}/offboard", c.offboard).Methods(http.MethodPost)
}

func (c *HRMAPIController) hire(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OrgID      string `json:"org_id"`
		CategoryID string `json:"category_id"`
		FirstName  string `json:"first_name"`
		LastName   string `json:"last_name"`
		Email      string `json:"email"`
	}
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.WriteJSON(w, http.StatusBadRequest, map[string]string{"code": "BAD_JSON", "message": err.Error()})
		return
	}
	orgID, err := uuid.Parse(body.OrgID)
	if err != nil {
		httpapi.WriteJSON(w, http.StatusBadRequest, map[string]string{"code": "BAD_UUID", "message": err.Error()})
		return
	}
	categoryID, err := uuid.Parse(body.CategoryID)
	if err != nil {
		httpapi.WriteJSON(w, http.StatusBadRequest, map[string]string{"code": "BAD_UUID", "message": err.Error()})
		return
	}

	created, err := c.employees.Hire(r.Context(), &services.HireEmployeeDTO{
		OrgID:      orgID,
		CategoryID: categoryID,
		FirstName:  body.FirstName,
		LastName:   body.LastName,
		Email:      body.Email,
	})
	if err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, toEmployeeResponse(created))
}

func (c *HRMAPIController) list(w http.ResponseWriter, r *http.Request) {
	var (
		out []*employee.Employee
		err error
	)
	if rawOrgID := r.URL.Query().Get("org_id"); rawOrgID != "" {
		orgID, parseErr := uuid.Parse(rawOrgID)
		if parseErr != nil {
			httpapi.WriteJSON(w, http.StatusBadRequest, map[string]string{"code": "BAD_UUID", "message": parseErr.Error()})
			return
		}
		out, err = c.employees.ListByOrgUnit(r.Context(), orgID)
	} else if number := r.URL.Query().Get("number"); number != "" {
		var e *employee.Employee
		e, err = c.employees.GetByNumber(r.Context(), number)
		if e != nil {
			out = []*employee.Employee{e}
		}
	} else {
		out, err = c.employees.List(r.Context())
	}
	if err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}

	responses := make([]EmployeeResponse, 0, len(out))
	for _, e := range out {
		responses = append(responses, toEmployeeResponse(e))
	}
	httpapi.WriteJSON(w, http.StatusOK, responses)
}

func (c *HRMAPIController) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		httpapi.WriteJSON(w, http.StatusBadRequest, map[string]string{"code": "BAD_UUID", "message": err.Error()})
		return
	}
	e, err := c.employees.GetByID(r.Context(), id)
	if err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toEmployeeResponse(e))
}

func (c *HRMAPIController) transfer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		httpapi.WriteJSON(w, http.StatusBadRequest, map[string]string{"code": "BAD_UUID", "message": err.Error()})
		return
	}
	var body struct {
		OrgID string `json:"org_id"`
	}
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.WriteJSON(w, http.StatusBadRequest, map[string]string{"code": "BAD_JSON", "message": err.Error()})
		return
	}
	orgID, err := uuid.Parse(body.OrgID)
	if err != nil {
		httpapi.WriteJSON(w, http.StatusBadRequest, map[string]string{"code": "BAD_UUID", "message": err.Error()})
		return
	}

	e, err := c.employees.Transfer(r.Context(), id, orgID)
	if err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toEmployeeResponse(e))
}

func (c *HRMAPIController) offboard(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		httpapi.WriteJSON(w, http.StatusBadRequest, map[string]string{"code": "BAD_UUID", "message": err.Error()})
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.WriteJSON(w, http.StatusBadRequest, map[string]string{"code": "BAD_JSON", "message": err.Error()})
		return
	}

	e, err := c.employees.Offboard(r.Context(), id, body.Reason)
	if err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toEmployeeResponse(e))
}
