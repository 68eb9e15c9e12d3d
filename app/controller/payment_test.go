package controller

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/innowise-solutions/ms-go-payments/app/client"
	"github.com/innowise-solutions/ms-go-payments/app/entity"
	"github.com/innowise-solutions/ms-go-payments/app/service"
	"github.com/innowise-solutions/ms-go-payments/app/types"
)

type controllerPaymentRepo struct {
	payments map[string]*entity.Payment
	seq      int
	failAll  bool
}

func newControllerPaymentRepo() *controllerPaymentRepo {
	return &controllerPaymentRepo{payments: map[string]*entity.Payment{}}
}

func (r *controllerPaymentRepo) Create(_ context.Context, payment *entity.Payment) error {
	r.seq++
	payment.ID = fmt.Sprintf("pay-%d", r.seq)
	copyItem := *payment
	r.payments[payment.ID] = &copyItem
	return nil
}

func (r *controllerPaymentRepo) Update(_ context.Context, payment *entity.Payment) error {
	stored, ok := r.payments[payment.ID]
	if !ok {
		return errors.New("payment not found")
	}
	stored.Status = payment.Status
	return nil
}

func (r *controllerPaymentRepo) FindByID(_ context.Context, id string) (*entity.Payment, error) {
	item, ok := r.payments[id]
	if !ok {
		return nil, nil
	}
	copyItem := *item
	return &copyItem, nil
}

func (r *controllerPaymentRepo) FindAll(context.Context) ([]*entity.Payment, error) {
	if r.failAll {
		return nil, errors.New("connection refused")
	}
	return r.filter(func(*entity.Payment) bool { return true }), nil
}

func (r *controllerPaymentRepo) FindByOrderID(_ context.Context, orderID string) ([]*entity.Payment, error) {
	return r.filter(func(p *entity.Payment) bool { return p.OrderID == orderID }), nil
}

func (r *controllerPaymentRepo) FindByUserID(_ context.Context, userID string) ([]*entity.Payment, error) {
	return r.filter(func(p *entity.Payment) bool { return p.UserID == userID }), nil
}

func (r *controllerPaymentRepo) FindByStatusIn(_ context.Context, statuses []entity.PaymentStatus) ([]*entity.Payment, error) {
	return r.filter(func(p *entity.Payment) bool { return hasStatus(p.Status, statuses) }), nil
}

func (r *controllerPaymentRepo) FindByTimestampBetween(_ context.Context, startDate, endDate time.Time) ([]*entity.Payment, error) {
	return r.filter(func(p *entity.Payment) bool { return between(p.Timestamp, startDate, endDate) }), nil
}

func (r *controllerPaymentRepo) FindByStatusInAndTimestampBetween(_ context.Context, statuses []entity.PaymentStatus, startDate, endDate time.Time) ([]*entity.Payment, error) {
	return r.filter(func(p *entity.Payment) bool {
		return hasStatus(p.Status, statuses) && between(p.Timestamp, startDate, endDate)
	}), nil
}

func (r *controllerPaymentRepo) FindByUserIDAndStatusIn(_ context.Context, userID string, statuses []entity.PaymentStatus) ([]*entity.Payment, error) {
	return r.filter(func(p *entity.Payment) bool {
		return p.UserID == userID && hasStatus(p.Status, statuses)
	}), nil
}

func (r *controllerPaymentRepo) FindByUserIDAndTimestampBetween(_ context.Context, userID string, startDate, endDate time.Time) ([]*entity.Payment, error) {
	return r.filter(func(p *entity.Payment) bool {
		return p.UserID == userID && between(p.Timestamp, startDate, endDate)
	}), nil
}

func (r *controllerPaymentRepo) FindByUserIDAndStatusInAndTimestampBetween(_ context.Context, userID string, statuses []entity.PaymentStatus, startDate, endDate time.Time) ([]*entity.Payment, error) {
	return r.filter(func(p *entity.Payment) bool {
		return p.UserID == userID && hasStatus(p.Status, statuses) && between(p.Timestamp, startDate, endDate)
	}), nil
}

func (r *controllerPaymentRepo) filter(match func(*entity.Payment) bool) []*entity.Payment {
	items := make([]*entity.Payment, 0)
	for _, item := range r.payments {
		if match(item) {
			copyItem := *item
			items = append(items, &copyItem)
		}
	}
	return items
}

func hasStatus(status entity.PaymentStatus, statuses []entity.PaymentStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func between(ts, startDate, endDate time.Time) bool {
	return !ts.Before(startDate) && !ts.After(endDate)
}

type controllerOutcome struct{ number int }

func (o *controllerOutcome) FetchNumber(context.Context) (int, bool) { return o.number, true }

type controllerOrders struct{}

func (o *controllerOrders) UpdateOrderStatus(context.Context, string, string, string) error {
	return nil
}

type controllerEvents struct{}

func (e *controllerEvents) PublishCreatePayment(string, string, string) error { return nil }

type controllerUsers struct {
	user     *client.User
	err      error
	gotEmail string
	gotToken string
}

func (u *controllerUsers) GetUserByEmail(_ context.Context, email, authToken string) (*client.User, error) {
	u.gotEmail = email
	u.gotToken = authToken
	if u.err != nil {
		return nil, u.err
	}
	return u.user, nil
}

type controllerFixture struct {
	repo       *controllerPaymentRepo
	users      *controllerUsers
	controller *PaymentController
}

func newControllerFixture(outcomeNumber int) *controllerFixture {
	repo := newControllerPaymentRepo()
	users := &controllerUsers{}
	svc := service.NewPaymentService(repo, &controllerOutcome{number: outcomeNumber}, &controllerOrders{}, &controllerEvents{})
	return &controllerFixture{
		repo:       repo,
		users:      users,
		controller: NewPaymentController(svc, users),
	}
}

func (f *controllerFixture) seed(userID string, status entity.PaymentStatus, ts time.Time, rawAmount string) {
	f.repo.seq++
	id := fmt.Sprintf("pay-%d", f.repo.seq)
	payment := &entity.Payment{
		ID:        id,
		OrderID:   fmt.Sprintf("order-%d", f.repo.seq),
		UserID:    userID,
		Status:    status,
		Timestamp: ts,
	}
	if rawAmount != "" {
		payment.PaymentAmount = decimal.NewNullDecimal(decimal.RequireFromString(rawAmount))
	}
	f.repo.payments[id] = payment
}

func request(method, target, body string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return req, httptest.NewRecorder()
}

func invoke(t *testing.T, handler echo.HandlerFunc, req *http.Request, rec *httptest.ResponseRecorder, pathParams map[string]string) {
	t.Helper()
	ctx := echo.New().NewContext(req, rec)
	for name, value := range pathParams {
		ctx.SetParamNames(name)
		ctx.SetParamValues(value)
	}
	if err := handler(ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
}

func bearerFor(email string) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(fmt.Sprintf(`{"sub":%q}`, email)))
	return "Bearer header." + payload + ".signature"
}

func TestHealth(t *testing.T) {
	f := newControllerFixture(2)
	req, rec := request(http.MethodGet, "/health", "")
	invoke(t, f.controller.Health, req, rec, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCreatePaymentReturnsCreated(t *testing.T) {
	f := newControllerFixture(48)
	req, rec := request(http.MethodPost, "/api/v1/payments",
		`{"orderId":"1","userId":"2","paymentAmount":"100.50"}`)
	invoke(t, f.controller.CreatePayment, req, rec, nil)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var body types.Payment
	decodeBody(t, rec, &body)
	if body.ID == "" || body.OrderID != "1" || body.Status != "SUCCESS" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.PaymentAmount == nil || !body.PaymentAmount.Equal(decimal.RequireFromString("100.50")) {
		t.Fatalf("unexpected amount: %v", body.PaymentAmount)
	}
}

func TestCreatePaymentRejectsInvalidBody(t *testing.T) {
	f := newControllerFixture(2)
	req, rec := request(http.MethodPost, "/api/v1/payments", `{"orderId":"1"}`)
	invoke(t, f.controller.CreatePayment, req, rec, nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var body types.ErrorResponse
	decodeBody(t, rec, &body)
	if body.Error == "" {
		t.Fatal("expected an error message")
	}
}

func TestCreatePaymentRejectsMalformedJSON(t *testing.T) {
	f := newControllerFixture(2)
	req, rec := request(http.MethodPost, "/api/v1/payments", `{`)
	invoke(t, f.controller.CreatePayment, req, rec, nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetAllPayments(t *testing.T) {
	f := newControllerFixture(2)
	now := time.Now().UTC()
	f.seed("2", entity.PaymentStatusSuccess, now, "10.00")
	f.seed("3", entity.PaymentStatusFailed, now, "20.00")

	req, rec := request(http.MethodGet, "/api/v1/payments", "")
	invoke(t, f.controller.GetAllPayments, req, rec, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body []types.Payment
	decodeBody(t, rec, &body)
	if len(body) != 2 {
		t.Fatalf("expected 2 payments, got %d", len(body))
	}
}

func TestGetAllPaymentsRepositoryFailure(t *testing.T) {
	f := newControllerFixture(2)
	f.repo.failAll = true

	req, rec := request(http.MethodGet, "/api/v1/payments", "")
	invoke(t, f.controller.GetAllPayments, req, rec, nil)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestGetPaymentsByOrderID(t *testing.T) {
	f := newControllerFixture(2)
	now := time.Now().UTC()
	f.seed("2", entity.PaymentStatusSuccess, now, "10.00")

	req, rec := request(http.MethodGet, "/api/v1/payments/order/order-1", "")
	invoke(t, f.controller.GetPaymentsByOrderID, req, rec, map[string]string{"orderId": "order-1"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body []types.Payment
	decodeBody(t, rec, &body)
	if len(body) != 1 || body[0].OrderID != "order-1" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestGetPaymentsByOrderIDRejectsBlankIdentifier(t *testing.T) {
	f := newControllerFixture(2)
	req, rec := request(http.MethodGet, "/api/v1/payments/order/%20", "")
	invoke(t, f.controller.GetPaymentsByOrderID, req, rec, map[string]string{"orderId": " "})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetPaymentsByUserID(t *testing.T) {
	f := newControllerFixture(2)
	now := time.Now().UTC()
	f.seed("2", entity.PaymentStatusSuccess, now, "10.00")
	f.seed("3", entity.PaymentStatusSuccess, now, "20.00")

	req, rec := request(http.MethodGet, "/api/v1/payments/user/2", "")
	invoke(t, f.controller.GetPaymentsByUserID, req, rec, map[string]string{"userId": "2"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body []types.Payment
	decodeBody(t, rec, &body)
	if len(body) != 1 || body[0].UserID != "2" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestGetPaymentsByStatuses(t *testing.T) {
	f := newControllerFixture(2)
	now := time.Now().UTC()
	f.seed("2", entity.PaymentStatusSuccess, now, "10.00")
	f.seed("2", entity.PaymentStatusFailed, now, "20.00")

	req, rec := request(http.MethodGet, "/api/v1/payments/statuses?statuses=SUCCESS", "")
	invoke(t, f.controller.GetPaymentsByStatuses, req, rec, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body []types.Payment
	decodeBody(t, rec, &body)
	if len(body) != 1 || body[0].Status != "SUCCESS" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestGetPaymentsByStatusesRejectsEmpty(t *testing.T) {
	f := newControllerFixture(2)
	req, rec := request(http.MethodGet, "/api/v1/payments/statuses", "")
	invoke(t, f.controller.GetPaymentsByStatuses, req, rec, nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetPaymentsByStatusesRejectsUnknown(t *testing.T) {
	f := newControllerFixture(2)
	req, rec := request(http.MethodGet, "/api/v1/payments/statuses?statuses=NOPE", "")
	invoke(t, f.controller.GetPaymentsByStatuses, req, rec, nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetTotalSum(t *testing.T) {
	f := newControllerFixture(2)
	now := time.Now().UTC()
	f.seed("2", entity.PaymentStatusSuccess, now, "10.10")
	f.seed("2", entity.PaymentStatusFailed, now, "")
	f.seed("3", entity.PaymentStatusSuccess, now, "5.15")

	req, rec := request(http.MethodGet, "/api/v1/payments/total", "")
	invoke(t, f.controller.GetTotalSum, req, rec, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body types.TotalSumResponse
	decodeBody(t, rec, &body)
	if !body.TotalSum.Equal(decimal.RequireFromString("15.25")) {
		t.Fatalf("expected 15.25, got %s", body.TotalSum)
	}
	if body.PaymentCount != 3 {
		t.Fatalf("expected count 3, got %d", body.PaymentCount)
	}
}

func TestGetTotalSumWithWindowAndStatuses(t *testing.T) {
	f := newControllerFixture(2)
	inWindow := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	outside := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	f.seed("2", entity.PaymentStatusSuccess, inWindow, "10.00")
	f.seed("2", entity.PaymentStatusFailed, inWindow, "20.00")
	f.seed("2", entity.PaymentStatusSuccess, outside, "40.00")

	target := "/api/v1/payments/total?startDate=2025-01-01T00:00:00Z&endDate=2025-01-31T23:59:59Z&statuses=SUCCESS"
	req, rec := request(http.MethodGet, target, "")
	invoke(t, f.controller.GetTotalSum, req, rec, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body types.TotalSumResponse
	decodeBody(t, rec, &body)
	if !body.TotalSum.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("expected 10.00, got %s", body.TotalSum)
	}
	if body.StartDate == nil || body.EndDate == nil {
		t.Fatal("expected the window to be echoed")
	}
}

func TestGetTotalSumRejectsHalfOpenWindow(t *testing.T) {
	f := newControllerFixture(2)
	req, rec := request(http.MethodGet, "/api/v1/payments/total?startDate=2025-01-01T00:00:00Z", "")
	invoke(t, f.controller.GetTotalSum, req, rec, nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetMyTotalSum(t *testing.T) {
	f := newControllerFixture(2)
	f.users.user = &client.User{ID: 7, Email: "ann@example.com"}
	now := time.Now().UTC()
	f.seed("7", entity.PaymentStatusSuccess, now, "10.00")
	f.seed("8", entity.PaymentStatusSuccess, now, "99.00")

	req, rec := request(http.MethodGet, "/api/v1/payments/my-payments", "")
	req.Header.Set(echo.HeaderAuthorization, bearerFor("ann@example.com"))
	invoke(t, f.controller.GetMyTotalSum, req, rec, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if f.users.gotEmail != "ann@example.com" {
		t.Fatalf("expected email from the token, got %q", f.users.gotEmail)
	}
	if !strings.HasPrefix(f.users.gotToken, "Bearer ") {
		t.Fatalf("expected the raw header to be forwarded, got %q", f.users.gotToken)
	}

	var body types.TotalSumResponse
	decodeBody(t, rec, &body)
	if !body.TotalSum.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("expected only the caller's payments, got %s", body.TotalSum)
	}
	if body.PaymentCount != 1 {
		t.Fatalf("expected count 1, got %d", body.PaymentCount)
	}
}

func TestGetMyTotalSumWithoutToken(t *testing.T) {
	f := newControllerFixture(2)
	req, rec := request(http.MethodGet, "/api/v1/payments/my-payments", "")
	invoke(t, f.controller.GetMyTotalSum, req, rec, nil)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGetMyTotalSumUnknownUser(t *testing.T) {
	f := newControllerFixture(2)
	f.users.err = fmt.Errorf("%w: ann@example.com", client.ErrUserNotFound)

	req, rec := request(http.MethodGet, "/api/v1/payments/my-payments", "")
	req.Header.Set(echo.HeaderAuthorization, bearerFor("ann@example.com"))
	invoke(t, f.controller.GetMyTotalSum, req, rec, nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetMyTotalSumUserServiceFailure(t *testing.T) {
	f := newControllerFixture(2)
	f.users.err = errors.New("user service unavailable")

	req, rec := request(http.MethodGet, "/api/v1/payments/my-payments", "")
	req.Header.Set(echo.HeaderAuthorization, bearerFor("ann@example.com"))
	invoke(t, f.controller.GetMyTotalSum, req, rec, nil)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
