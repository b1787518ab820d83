package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/interfaces/http/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testContext(method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestHandleError(t *testing.T) {
	var h BaseHandler

	t.Run("domain errors map by kind", func(t *testing.T) {
		c, w := testContext(http.MethodGet, "/", "")
		h.HandleError(c, shared.NewNotFoundError("bill"))

		assert.Equal(t, http.StatusNotFound, w.Code)
		info := decodeError(t, w)
		assert.Equal(t, "NOT_FOUND", info.Code)
		assert.Equal(t, "bill", info.Details["resource"])
		assert.Len(t, c.Errors, 1)
	})

	t.Run("unknown errors are opaque", func(t *testing.T) {
		c, w := testContext(http.MethodGet, "/", "")
		h.HandleError(c, errors.New("dial tcp 10.0.0.1:5432: refused"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "10.0.0.1")
	})
}

func TestBindJSON(t *testing.T) {
	var h BaseHandler
	type body struct {
		Quantity int64 `json:"quantity" binding:"required,gt=0"`
	}

	t.Run("reports failed rules per field", func(t *testing.T) {
		c, w := testContext(http.MethodPost, "/", `{"quantity":-1}`)
		var req body

		assert.False(t, h.bindJSON(c, &req))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		info := decodeError(t, w)
		assert.Equal(t, "VALIDATION_ERROR", info.Code)
		assert.Equal(t, map[string]any{"Quantity": "gt"}, info.Details["fields"])
	})

	t.Run("malformed JSON", func(t *testing.T) {
		c, w := testContext(http.MethodPost, "/", `{"quantity":`)
		var req body

		assert.False(t, h.bindJSON(c, &req))
		assert.Equal(t, "INVALID_REQUEST", decodeError(t, w).Code)
	})

	t.Run("valid body", func(t *testing.T) {
		c, _ := testContext(http.MethodPost, "/", `{"quantity":3}`)
		var req body

		assert.True(t, h.bindJSON(c, &req))
		assert.Equal(t, int64(3), req.Quantity)
	})
}

func TestQueryIDs(t *testing.T) {
	var h BaseHandler
	shopID := uuid.New()

	t.Run("parses present IDs and skips absent ones", func(t *testing.T) {
		c, _ := testContext(http.MethodGet, "/?shop_id="+shopID.String(), "")
		var shop, product *uuid.UUID

		require.True(t, h.queryIDs(c, map[string]**uuid.UUID{"shop_id": &shop, "product_id": &product}))
		require.NotNil(t, shop)
		assert.Equal(t, shopID, *shop)
		assert.Nil(t, product)
	})

	t.Run("rejects malformed IDs", func(t *testing.T) {
		c, w := testContext(http.MethodGet, "/?shop_id=12", "")
		var shop *uuid.UUID

		assert.False(t, h.queryIDs(c, map[string]**uuid.UUID{"shop_id": &shop}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_ID", decodeError(t, w).Code)
	})
}

func TestActorRequired(t *testing.T) {
	var h BaseHandler
	c, w := testContext(http.MethodGet, "/", "")

	_, ok := h.actor(c)

	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
