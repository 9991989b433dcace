package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/kadrohq/kadro/modules/numbering/domain/aggregates/allocation"
	"github.com/kadrohq/kadro/modules/numbering/domain/aggregates/category"
	"github.com/kadrohq/kadro/modules/numbering/domain/aggregates/iprange"
	"github.com/kadrohq/kadro/modules/numbering/services"
	"github.com/kadrohq/kadro/pkg/httpapi"
)

type CategoryResponse struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Sequence int64  `json:"sequence"`
	IsActive bool   `json:"is_active"`
}

func toCategoryResponse(c *category.Category) CategoryResponse {
	return CategoryResponse{
		ID:       c.ID().String(),
		Kind:     string(c.Kind()),
		Code:     c.Code(),
		Name:     c.Name(),
		Sequence: c.Sequence(),
		IsActive: c.IsActive(),
	}
}

type RecordResponse struct {
	ID             string  `json:"id"`
	CategoryID     string  `json:"category_id"`
	FullIdentifier string  `json:"full_identifier"`
	Sequence       int64   `json:"sequence"`
	Status         string  `json:"status"`
	TargetKind     string  `json:"target_kind,omitempty"`
	TargetID       string  `json:"target_id,omitempty"`
	RetiredReason  *string `json:"retired_reason,omitempty"`
}

func toRecordResponse(r *allocation.Record) RecordResponse {
	target := r.Target()
	return RecordResponse{
		ID:             r.ID().String(),
		CategoryID:     r.CategoryID().String(),
		FullIdentifier: r.FullIdentifier(),
		Sequence:       r.Sequence(),
		Status:         string(r.Status()),
		TargetKind:     target.Kind(),
		TargetID:       target.ID(),
		RetiredReason:  r.RetiredReason(),
	}
}

type RangeResponse struct {
	ID      string  `json:"id"`
	Start   string  `json:"start"`
	End     string  `json:"end"`
	Subnet  *string `json:"subnet,omitempty"`
	Gateway *string `json:"gateway,omitempty"`
	Label   string  `json:"label"`
	Count   uint32  `json:"count"`
}

func toRangeResponse(r *iprange.Range) RangeResponse {
	return RangeResponse{
		ID:      r.ID().String(),
		Start:   r.Start(),
		End:     r.End(),
		Subnet:  r.Subnet(),
		Gateway: r.Gateway(),
		Label:   r.Label(),
		Count:   r.Count(),
	}
}

type AssignmentResponse struct {
	ID            string  `json:"id"`
	RangeID       string  `json:"range_id"`
	Address       string  `json:"address"`
	Status        string  `json:"status"`
	TargetKind    string  `json:"target_kind,omitempty"`
	TargetID      string  `json:"target_id,omitempty"`
	RetiredReason *string `json:"retired_reason,omitempty"`
}

func toAssignmentResponse(a *iprange.Assignment) AssignmentResponse {
	target := a.Target()
	return AssignmentResponse{
		ID:            a.ID().String(),
		RangeID:       a.RangeID().String(),
		Address:       a.Address(),
		Status:        string(a.Status()),
		TargetKind:    target.Kind(),
		TargetID:      target.ID(),
		RetiredReason: a.RetiredReason(),
	}
}

type StatisticsResponse struct {
	Total     int64 `json:"total"`
	Available int64 `json:"available"`
	InUse     int64 `json:"in_use"`
	Retired   int64 `json:"retired"`
}

type NumberingAPIController struct {
	categories *services.CategoryService
	sequences  *services.SequenceService
	ledger     *services.LedgerService
	ipam       *services.IPAMService
	log        *logrus.Logger
}

func NewNumberingAPIController(
	categories *services.CategoryService,
	sequences *services.SequenceService,
	ledger *services.LedgerService,
	ipam *services.IPAMService,
	log *logrus.Logger,
) *NumberingAPIController {
	return &NumberingAPIController{
		categories: categories,
		sequences:  sequences,
		ledger:     ledger,
		ipam:       ipam,
		log:        log,
	}
}

func (c *NumberingAPIController) Key() string {
	return "/api/numbering"
}

func (c *NumberingAPIController) Register(r *mux.Router) {
	cats := r.PathPrefix("/api/numbering/categories").Subrouter()
	cats.HandleFunc("", c.createCategory).Methods(http.MethodPost)
	cats.HandleFunc("", c.listCategories).Methods(http.MethodGet)
	cats.HandleFunc("/{id}", c.getCategory).Methods(http.MethodGet)
	cats.HandleFunc("/{id}/deactivate", c.deactivateCategory).Methods(http.MethodPost)
	cats.HandleFunc("/{id}/peek", c.peekNext).Methods(http.MethodGet)
	cats.HandleFunc("/{id}/commit", c.commitNext).Methods(http.MethodPost)
	cats.HandleFunc("/{id}/issue", c.issue).Methods(http.MethodPost)
	cats.HandleFunc("/{id}/records", c.recordsByStatus).Methods(http.MethodGet)
	cats.HandleFunc("/{id}/statistics", c.categoryStatistics).Methods(http.MethodGet)

	recs := r.PathPrefix("/api/numbering/records").Subrouter()
	recs.HandleFunc("/lookup", c.lookupRecord).Methods(http.MethodGet)
	recs.HandleFunc("/{id}/assign", c.assignRecord).Methods(http.MethodPost)
	recs.HandleFunc("/{id}/release", c.releaseRecord).Methods(http.MethodPost)
	recs.HandleFunc("/{id}/retire", c.retireRecord).Methods(http.MethodPost)

	ranges := r.PathPrefix("/api/numbering/ranges").Subrouter()
	ranges.HandleFunc("", c.createRange).Methods(http.MethodPost)
	ranges.HandleFunc("", c.listRanges).Methods(http.MethodGet)
	ranges.HandleFunc("/{id}", c.getRange).Methods(http.MethodGet)
	ranges.HandleFunc("/{id}/assignments", c.listAssignments).Methods(http.MethodGet)
	ranges.HandleFunc("/{id}/statistics", c.rangeStatistics).Methods(http.MethodGet)
	ranges.HandleFunc("/{id}/addresses", c.issueAddress).Methods(http.MethodPost)

	assignments := r.PathPrefix("/api/numbering/assignments").Subrouter()
	assignments.HandleFunc("/{id}/assign", c.assignAddress).Methods(http.MethodPost)
	assignments.HandleFunc("/{id}/release", c.releaseAddress).Methods(http.MethodPost)
	assignments.HandleFunc("/{id}/retire", c.retireAddress).Methods(http.MethodPost)
}

func (c *NumberingAPIController) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		httpapi.WriteJSON(w, http.StatusBadRequest, map[string]string{"code": "BAD_UUID", "message": err.Error()})
		return uuid.Nil, false
	}
	return id, true
}

func (c *NumberingAPIController) createCategory(w http.ResponseWriter, r *http.Request) {
	var dto services.CreateCategoryDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		httpapi.WriteJSON(w, http.StatusBadRequest, map[string]string{"code": "BAD_JSON", "message": err.Error()})
		return
	}
	created, err := c.categories.Create(r.Context(), &dto)
	if err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, toCategoryResponse(created))
}

func (c *NumberingAPIController) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := c.categories.List(r.Context())
	if err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	out := make([]CategoryResponse, 0, len(cats))
	for _, cat := range cats {
		out = append(out, toCategoryResponse(cat))
	}
	httpapi.WriteJSON(w, http.StatusOK, out)
}

func (c *NumberingAPIController) getCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := c.pathID(w, r)
	if !ok {
		return
	}
	cat, err := c.categories.GetByID(r.Context(), id)
	if err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toCategoryResponse(cat))
}

func (c *NumberingAPIController) deactivateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := c.pathID(w, r)
	if !ok {
		return
	}
	if err := c.categories.Deactivate(r.Context(), id); err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusNoContent, nil)
}

func (c *NumberingAPIController) peekNext(w http.ResponseWriter, r *http.Request) {
	id, ok := c.pathID(w, r)
	if !ok {
		return
	}
	next, err := c.sequences.PeekNext(r.Context(), id)
	if err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string]int64{"next": next})
}

func (c *NumberingAPIController) commitNext(w http.ResponseWriter, r *http.Request) {
	id, ok := c.pathID(w, r)
	if !ok {
		return
	}
	value, err := c.sequences.CommitNext(r.Context(), id)
	if err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string]int64{"value": value})
}

func (c *NumberingAPIController) issue(w http.ResponseWriter, r *http.Request) {
	id, ok := c.pathID(w, r)
	if !ok {
		return
	}
	rec, err := c.ledger.Issue(r.Context(), id)
	if err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, toRecordResponse(rec))
}

func (c *NumberingAPIController) recordsByStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := c.pathID(w, r)
	if !ok {
		return
	}
	status := allocation.Status(r.URL.Query().Get("status"))
	recs, err := c.ledger.FindByStatus(r.Context(), id, status)
	if err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	out := make([]RecordResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toRecordResponse(rec))
	}
	httpapi.WriteJSON(w, http.StatusOK, out)
}

func (c *NumberingAPIController) categoryStatistics(w http.ResponseWriter, r *http.Request) {
	id, ok := c.pathID(w, r)
	if !ok {
		return
	}
	stats, err := c.ledger.UsageStatistics(r.Context(), id)
	if err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, StatisticsResponse{
		Total:     stats.Total,
		Available: stats.Available,
		InUse:     stats.InUse,
		Retired:   stats.Retired,
	})
}

func (c *NumberingAPIController) lookupRecord(w http.ResponseWriter, r *http.Request) {
	fullID := r.URL.Query().Get("full_identifier")
	rec, err := c.ledger.FindByFullIdentifier(r.Context(), fullID)
	if err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toRecordResponse(rec))
}

func (c *NumberingAPIController) assignRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := c.pathID(w, r)
	if !ok {
		return
	}
	var dto services.AssignTargetDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		httpapi.WriteJSON(w, http.StatusBadRequest, map[string]string{"code": "BAD_JSON", "message": err.Error()})
		return
	}
	rec, err := c.ledger.Assign(r.Context(), id, &dto)
	if err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toRecordResponse(rec))
}

func (c *NumberingAPIController) releaseRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := c.pathID(w, r)
	if !ok {
		return
	}
	rec, err := c.ledger.Release(r.Context(), id)
	if err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toRecordResponse(rec))
}

func (c *NumberingAPIController) retireRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := c.pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.WriteJSON(w, http.StatusBadRequest, map[string]string{"code": "BAD_JSON", "message": err.Error()})
		return
	}
	rec, err := c.ledger.Retire(r.Context(), id, body.Reason)
	if err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toRecordResponse(rec))
}

func (c *NumberingAPIController) createRange(w http.ResponseWriter, r *http.Request) {
	var dto services.CreateRangeDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		httpapi.WriteJSON(w, http.StatusBadRequest, map[string]string{"code": "BAD_JSON", "message": err.Error()})
		return
	}
	created, err := c.ipam.CreateRange(r.Context(), &dto)
	if err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, toRangeResponse(created))
}

func (c *NumberingAPIController) listRanges(w http.ResponseWriter, r *http.Request) {
	ranges, err := c.ipam.ListRanges(r.Context())
	if err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	out := make([]RangeResponse, 0, len(ranges))
	for _, rng := range ranges {
		out = append(out, toRangeResponse(rng))
	}
	httpapi.WriteJSON(w, http.StatusOK, out)
}

func (c *NumberingAPIController) getRange(w http.ResponseWriter, r *http.Request) {
	id, ok := c.pathID(w, r)
	if !ok {
		return
	}
	rng, err := c.ipam.GetRange(r.Context(), id)
	if err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toRangeResponse(rng))
}

func (c *NumberingAPIController) listAssignments(w http.ResponseWriter, r *http.Request) {
	id, ok := c.pathID(w, r)
	if !ok {
		return
	}
	assignments, err := c.ipam.ListAssignments(r.Context(), id)
	if err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	out := make([]AssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, toAssignmentResponse(a))
	}
	httpapi.WriteJSON(w, http.StatusOK, out)
}

func (c *NumberingAPIController) rangeStatistics(w http.ResponseWriter, r *http.Request) {
	id, ok := c.pathID(w, r)
	if !ok {
		return
	}
	stats, err := c.ipam.UsageStatistics(r.Context(), id)
	if err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, StatisticsResponse{
		Total:     stats.Total,
		Available: stats.Available,
		InUse:     stats.InUse,
		Retired:   stats.Retired,
	})
}

func (c *NumberingAPIController) issueAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := c.pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Address string `json:"address"`
	}
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.WriteJSON(w, http.StatusBadRequest, map[string]string{"code": "BAD_JSON", "message": err.Error()})
		return
	}
	a, err := c.ipam.IssueAddress(r.Context(), id, body.Address)
	if err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, toAssignmentResponse(a))
}

func (c *NumberingAPIController) assignAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := c.pathID(w, r)
	if !ok {
		return
	}
	var dto services.AssignTargetDTO
	if err := httpapi.DecodeJSON(r, &dto); err != nil {
		httpapi.WriteJSON(w, http.StatusBadRequest, map[string]string{"code": "BAD_JSON", "message": err.Error()})
		return
	}
	a, err := c.ipam.Assign(r.Context(), id, &dto)
	if err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toAssignmentResponse(a))
}

func (c *NumberingAPIController) releaseAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := c.pathID(w, r)
	if !ok {
		return
	}
	a, err := c.ipam.Release(r.Context(), id)
	if err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toAssignmentResponse(a))
}

func (c *NumberingAPIController) retireAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := c.pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := httpapi.DecodeJSON(r, &body); err != nil {
		httpapi.WriteJSON(w, http.StatusBadRequest, map[string]string{"code": "BAD_JSON", "message": err.Error()})
		return
	}
	a, err := c.ipam.Retire(r.Context(), id, body.Reason)
	if err != nil {
		httpapi.WriteError(w, c.log, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toAssignmentResponse(a))
}
