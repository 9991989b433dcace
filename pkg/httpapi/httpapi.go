package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/kadrohq/kadro/pkg/serrors"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func DecodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

// WriteError translates domain errors into HTTP statuses by their stable
// code. Unknown errors are logged and answered with a bare 500 so internals
// never leak to the client.
func WriteError(w http.ResponseWriter, log *logrus.Logger, err error) {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		WriteJSON(w, http.StatusBadRequest, errorResponse{Code: "VALIDATION_FAILED", Message: vErrs.Error()})
		return
	}

	var base *serrors.BaseError
	if errors.As(err, &base) {
		WriteJSON(w, statusForCode(base.Code), errorResponse{Code: base.Code, Message: base.Message})
		return
	}

	log.WithError(err).Error("unhandled error in http handler")
	WriteJSON(w, http.StatusInternalServerError, errorResponse{Code: "INTERNAL", Message: "internal server error"})
}

func statusForCode(code string) int {
	switch code {
	case "ORGANIZATION_NOT_FOUND", "CATEGORY_NOT_FOUND", "ALLOCATION_NOT_FOUND",
		"RANGE_NOT_FOUND", "ASSIGNMENT_NOT_FOUND", "EMPLOYEE_NOT_FOUND",
		"ORG_OUTSIDE_TENANT", "TENANT_ROOT_MISSING":
		return http.StatusNotFound
	case "DUPLICATE_CATEGORY_CODE", "DUPLICATE_ALLOCATION",
		"ADDRESS_ALREADY_ALLOCATED", "ALLOCATION_CONTENTION",
		"ORGANIZATION_DUPLICATE_CODE":
		return http.StatusConflict
	case "INVALID_ADDRESS_FORMAT", "INVALID_SEQUENCE", "INVALID_TARGET",
		"INVALID_CATEGORY_CODE":
		return http.StatusBadRequest
	case "CYCLE_DETECTED", "TREE_TOO_DEEP", "CATEGORY_INACTIVE",
		"RECORD_RETIRED", "ADDRESS_OUT_OF_RANGE", "EMPLOYEE_ALREADY_OFFBOARDED":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
