package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/gebeya/marketplace-api/internal/model"
	"github.com/gebeya/marketplace-api/internal/service"
)

func TestOrderHandler_RenderOrderError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewOrderHandler(nil)

	cases := []struct {
		name string
		err  error
		code int
	}{
		{"order not found", service.ErrOrderNotFound, http.StatusNotFound},
		{"access denied", service.ErrOrderAccessDenied, http.StatusForbidden},
		{"unknown status", service.ErrInvalidStatus, http.StatusBadRequest},
		{"no items", service.ErrNoOrderItems, http.StatusBadRequest},
		{"unknown product in replaced items", service.ErrProductNotFound, http.StatusBadRequest},
		{"invalid transition", &model.InvalidTransitionError{From: model.OrderStatusPending, To: model.OrderStatusShipped}, http.StatusConflict},
		{"storage failure", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			h.renderOrderError(c, tc.err)
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}
