package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/retailcore/backend/internal/application/apptest"
	appbilling "github.com/retailcore/backend/internal/application/billing"
	appinv "github.com/retailcore/backend/internal/application/inventory"
	apptransfer "github.com/retailcore/backend/internal/application/transfer"
	"github.com/retailcore/backend/internal/domain/billing"
	"github.com/retailcore/backend/internal/domain/identity"
	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/infrastructure/auth"
	"github.com/retailcore/backend/internal/infrastructure/cache"
	"github.com/retailcore/backend/internal/infrastructure/config"
	"github.com/retailcore/backend/internal/infrastructure/persistence"
	"github.com/retailcore/backend/internal/infrastructure/telemetry"
	"github.com/retailcore/backend/internal/interfaces/http/dto"
	"github.com/retailcore/backend/internal/interfaces/http/handler"
	"github.com/retailcore/backend/internal/interfaces/http/middleware"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

type apiHarness struct {
	*apptest.Harness
	engine *gin.Engine
	jwt    *auth.JWTService
}

func newAPI(t *testing.T) *apiHarness {
	t.Helper()
	h := apptest.New(t)
	jwtSvc := auth.NewJWTService(config.JWTConfig{
		Secret:                "router-test-secret-with-enough-length",
		Issuer:                "retail-core",
		AccessTokenExpiration: time.Hour,
	})
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	engine, err := NewEngine(EngineConfig{
		Logger:         zap.NewNop(),
		ServiceName:    "retail-core",
		Metrics:        telemetry.NewMetrics("retail_test"),
		MetricsPath:    "/metrics",
		CORS:           middleware.DefaultCORSConfig(),
		MaxBodySize:    1 << 20,
		Verifier:       jwtSvc,
		Idempotency:    store,
		IdempotencyTTL: time.Hour,
	}, handler.NewSystemHandler(&persistence.Database{DB: h.DB}, "test"), Handlers{
		Inventory: handler.NewInventoryHandler(h.Ledger),
		Transfer:  handler.NewTransferHandler(h.Transfer),
		Billing:   handler.NewBillingHandler(h.Billing),
		Sales:     handler.NewSalesHandler(h.Sales),
	})
	require.NoError(t, err)
	return &apiHarness{Harness: h, engine: engine, jwt: jwtSvc}
}

type call struct {
	method string
	path   string
	as     *identity.Actor
	body   any
	header map[string]string
}

func (a *apiHarness) do(t *testing.T, c call) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var body bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &body)
	req.Header.Set("Content-Type", "application/json")
	if c.as != nil {
		token, _, err := a.jwt.Issue(auth.IssueInput{
			UserID:     c.as.UserID,
			BusinessID: c.as.BusinessID,
			ShopID:     c.as.ShopID,
			Role:       c.as.Role,
		})
		require.NoError(t, err)
		req.Header.Set(middleware.AuthHeaderKey, middleware.BearerPrefix+token)
	}
	for k, v := range c.header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") != "" && w.Body.Len() > 0 && w.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestEngine_HealthAndMetrics(t *testing.T) {
	a := newAPI(t)

	w, _ := a.do(t, call{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"up"`)

	w, _ = a.do(t, call{method: http.MethodGet, path: "/metrics"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `retail_test_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestEngine_RequiresAuthentication(t *testing.T) {
	a := newAPI(t)

	w, env := a.do(t, call{method: http.MethodGet, path: "/api/v1/inventory"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, dto.ErrCodeUnauthorized, env.Error.Code)
	assert.NotEmpty(t, env.Error.RequestID)
}

func TestEngine_StockAndDirectSales(t *testing.T) {
	a := newAPI(t)
	p := a.Product(t, "Soap", 20, "5.00")
	worker := a.Worker(t, a.Shop1)
	outsider := a.Worker(t, a.Shop2)

	w, env := a.do(t, call{method: http.MethodPost, path: "/api/v1/business-pool/allocate", as: &a.Owner,
		body: appinv.PoolMoveRequest{ProductID: p.ID, ShopID: a.Shop1.ID, Quantity: 8}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	inv := decode[appinv.ShopInventoryResponse](t, env)
	assert.Equal(t, int64(8), inv.Quantity)
	assert.Equal(t, int64(12), a.Pool(t, p))

	w, env = a.do(t, call{method: http.MethodGet, path: "/api/v1/inventory?shop_id=" + a.Shop1.ID.String(), as: &worker})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(1), env.Meta.Total)

	sale := map[string]any{"shop_id": a.Shop1.ID, "product_id": p.ID, "quantity": 3}
	w, _ = a.do(t, call{method: http.MethodPost, path: "/api/v1/sales/direct", as: &worker, body: sale})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, int64(5), a.ShopQuantity(t, a.Shop1, p))

	sale["quantity"] = 50
	w, env = a.do(t, call{method: http.MethodPost, path: "/api/v1/sales/direct", as: &worker, body: sale})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, string(shared.KindInsufficientStock), env.Error.Kind)
	assert.EqualValues(t, 5, env.Error.Details["available"])
	assert.Equal(t, int64(5), a.ShopQuantity(t, a.Shop1, p))

	sale["quantity"] = 1
	w, env = a.do(t, call{method: http.MethodPost, path: "/api/v1/sales/direct", as: &outsider, body: sale})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, string(shared.KindForbidden), env.Error.Kind)

	w, env = a.do(t, call{method: http.MethodGet, path: "/api/v1/stock-movements?product_id=" + p.ID.String(), as: &a.Owner})
	require.Equal(t, http.StatusOK, w.Code)
	assert.GreaterOrEqual(t, env.Meta.Total, int64(2))

	w, _ = a.do(t, call{method: http.MethodGet, path: "/api/v1/inventory?shop_id=nope", as: &a.Owner})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEngine_TransferWorkflow(t *testing.T) {
	a := newAPI(t)
	p := a.Product(t, "Rice", 0, "10.00")
	a.Stock(t, a.Shop1, p, 10)

	w, env := a.do(t, call{method: http.MethodPost, path: "/api/v1/transfers", as: &a.Owner,
		body: apptransfer.CreateTransferRequest{
			ProductID: p.ID, FromShopID: a.Shop1.ID, ToShopID: a.Shop2.ID, Quantity: 4,
			Reason: "weekend demand at harbour",
		}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[apptransfer.TransferResponse](t, env)
	assert.Equal(t, inventory.TransferStatusPending, created.Status)

	w, env = a.do(t, call{method: http.MethodGet, path: "/api/v1/transfers/pending", as: &a.Owner})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), env.Meta.Total)

	base := "/api/v1/transfers/" + created.ID.String()
	w, env = a.do(t, call{method: http.MethodPost, path: base + "/approve", as: &a.Owner})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, inventory.TransferStatusApproved, decode[apptransfer.TransferResponse](t, env).Status)

	w, _ = a.do(t, call{method: http.MethodPost, path: base + "/complete", as: &a.Owner})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(6), a.ShopQuantity(t, a.Shop1, p))
	assert.Equal(t, int64(4), a.ShopQuantity(t, a.Shop2, p))

	w, env = a.do(t, call{method: http.MethodPost, path: base + "/complete", as: &a.Owner})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, string(shared.KindInvalidTransition), env.Error.Kind)

	w, env = a.do(t, call{method: http.MethodGet, path: base, as: &a.Owner})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, inventory.TransferStatusCompleted, decode[apptransfer.TransferResponse](t, env).Status)

	w, _ = a.do(t, call{method: http.MethodPost, path: "/api/v1/transfers/not-a-uuid/approve", as: &a.Owner})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = a.do(t, call{method: http.MethodPost, path: "/api/v1/transfers", as: &a.Owner, body: map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Details, "fields")
}

func TestEngine_CreditBillAndIdempotentPayment(t *testing.T) {
	a := newAPI(t)
	p := a.Product(t, "Kettle", 0, "100.00")
	a.Stock(t, a.Shop1, p, 3)
	customer := a.Customer(t, a.Shop1)

	hundred := decimal.RequireFromString("100")
	w, env := a.do(t, call{method: http.MethodPost, path: "/api/v1/bills/credit", as: &a.Owner,
		body: appbilling.CreateCreditBillRequest{
			ShopID:     a.Shop1.ID,
			CustomerID: customer.ID,
			Items:      []appbilling.BillItemInput{{ProductID: p.ID, Quantity: 3, UnitPrice: &hundred}},
		}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	bill := decode[appbilling.BillResponse](t, env)
	assert.True(t, bill.TotalAmount.Equal(decimal.RequireFromString("300")))
	assert.Equal(t, int64(0), a.ShopQuantity(t, a.Shop1, p))

	pay := call{method: http.MethodPost, path: "/api/v1/bills/" + bill.ID.String() + "/payments", as: &a.Owner,
		body:   map[string]any{"amount": "100", "payment_method": "cash"},
		header: map[string]string{middleware.IdempotencyKeyHeader: "pay-" + uuid.NewString()}}
	first, _ := a.do(t, pay)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	second, _ := a.do(t, pay)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(middleware.IdempotentReplayedHeader))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	w, env = a.do(t, call{method: http.MethodGet, path: "/api/v1/bills/" + bill.ID.String(), as: &a.Owner})
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[appbilling.BillResponse](t, env)
	assert.Equal(t, billing.BillStatusPartial, got.Status)
	assert.True(t, got.PaidAmount.Equal(hundred), "the replayed payment was not applied twice")

	w, env = a.do(t, call{method: http.MethodPost, path: "/api/v1/bills/" + bill.ID.String() + "/payments", as: &a.Owner,
		body: map[string]any{"amount": "500"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "PAYMENT_EXCEEDS_OUTSTANDING", env.Error.Code)

	w, env = a.do(t, call{method: http.MethodGet, path: "/api/v1/customers/" + customer.ID.String(), as: &a.Owner})
	require.Equal(t, http.StatusOK, w.Code)
	c := decode[appbilling.CustomerResponse](t, env)
	assert.True(t, c.TotalPaid.Equal(hundred))
	assert.True(t, c.TotalCredit.Equal(decimal.RequireFromString("300")))

	w, env = a.do(t, call{method: http.MethodGet, path: "/api/v1/bills?customer_id=" + customer.ID.String(), as: &a.Owner})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), env.Meta.Total)
}
