package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadrohq/kadro/pkg/serrors"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	cases := []struct {
		code     string
		expected int
	}{
		{"ORGANIZATION_NOT_FOUND", http.StatusNotFound},
		{"EMPLOYEE_NOT_FOUND", http.StatusNotFound},
		{"ORG_OUTSIDE_TENANT", http.StatusNotFound},
		{"DUPLICATE_CATEGORY_CODE", http.StatusConflict},
		{"ADDRESS_ALREADY_ALLOCATED", http.StatusConflict},
		{"ALLOCATION_CONTENTION", http.StatusConflict},
		{"INVALID_ADDRESS_FORMAT", http.StatusBadRequest},
		{"INVALID_SEQUENCE", http.StatusBadRequest},
		{"CYCLE_DETECTED", http.StatusUnprocessableEntity},
		{"TREE_TOO_DEEP", http.StatusUnprocessableEntity},
		{"RECORD_RETIRED", http.StatusUnprocessableEntity},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		WriteError(rec, log, serrors.NewError(tc.code, "boom", ""))
		assert.Equal(t, tc.expected, rec.Code, tc.code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, tc.code, body["code"])
	}
}

func TestWriteErrorHidesInternals(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	rec := httptest.NewRecorder()
	WriteError(rec, log, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}
