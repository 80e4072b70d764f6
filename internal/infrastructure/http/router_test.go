package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lessonquote-service/internal/application"
	"lessonquote-service/internal/domain"
	"lessonquote-service/internal/infrastructure/calcom"
	"lessonquote-service/internal/infrastructure/metrics"
	"lessonquote-service/internal/infrastructure/money"
	"lessonquote-service/internal/infrastructure/provider"

	"github.com/stretchr/testify/require"
)

type tablePricing map[domain.CourseType]float64

func (t tablePricing) CalculatePrice(_ context.Context, req application.PriceRequest) (domain.PriceQuote, error) {
	p, ok := t[req.CourseType]
	if !ok {
		return domain.PriceQuote{}, errors.Join(application.ErrPricingUnavailable, errors.New("no tariff"))
	}
	return domain.PriceQuote{Price: p * float64(req.Quantity), Currency: "EUR"}, nil
}

type testEnv struct {
	h   http.Handler
	srv *Server
}

func setup(t *testing.T) testEnv {
	t.Helper()
	f, err := money.NewFormatter()
	require.NoError(t, err)
	conv := application.NewCurrencyConverter(provider.NewFake(nil), f)
	svc := application.NewQuoteService(
		tablePricing{domain.CourseConversation: 12, domain.CourseCurriculum: 35},
		conv,
		application.WithBookingGateway(calcom.NewFake()),
	)
	srv := NewServer(svc, metrics.New())
	return testEnv{h: NewRouter(srv), srv: srv}
}

func (e testEnv) do(t *testing.T, method, path, user string, body any, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(headerUserID, user)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	return rec
}

func (e testEnv) startSession(t *testing.T, user string, body any) sessionDTO {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/sessions", user, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var s sessionDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	return s
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	e := setup(t)
	rec := e.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "OK", rec.Body.String())
	require.NotEmpty(t, rec.Header().Get(headerRequestID))
	require.NotEmpty(t, rec.Header().Get(headerTraceID))
}

func TestReadyz_FailingCheck(t *testing.T) {
	e := setup(t)
	e.srv.SetReadyCheck(func(context.Context) error { return errors.New("db down") })

	rec := e.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.JSONEq(t, `{"code":503,"message":"db not ready"}`, rec.Body.String())
}

func TestSessions_RequireUser(t *testing.T) {
	e := setup(t)
	rec := e.do(t, http.MethodPost, "/sessions", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStartSession_Defaults(t *testing.T) {
	e := setup(t)
	s := e.startSession(t, "u-1", nil)
	require.NotEmpty(t, s.SessionID)
	require.Equal(t, selectionDTO{CourseType: "conversation", DurationMinutes: 60, Quantity: 1, Currency: "EUR"}, s.Selection)
	require.False(t, s.QuoteCached)
}

func TestStartSession_Invalid(t *testing.T) {
	e := setup(t)
	rec := e.do(t, http.MethodPost, "/sessions", "u-1", map[string]any{"currency": "JPY"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/sessions", "u-1", map[string]any{"quantity": 0})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode[errorEnvelope](t, rec)
	require.Equal(t, 400, env.Code)
}

func TestSession_OwnedByCaller(t *testing.T) {
	e := setup(t)
	s := e.startSession(t, "u-1", nil)
	rec := e.do(t, http.MethodGet, "/sessions/"+s.SessionID, "u-2", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	rec = e.do(t, http.MethodGet, "/sessions/"+s.SessionID, "u-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestQuote_CurrencyChangeFlow(t *testing.T) {
	e := setup(t)
	s := e.startSession(t, "u-1", nil)
	base := "/sessions/" + s.SessionID

	rec := e.do(t, http.MethodGet, base+"/quote", "u-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	q := decode[quoteDTO](t, rec)
	require.True(t, q.Available)
	require.Equal(t, "€12.00", q.DisplayPrice)
	require.False(t, q.CanSubmit)

	rec = e.do(t, http.MethodGet, base, "u-1", nil)
	require.True(t, decode[sessionDTO](t, rec).QuoteCached)

	rec = e.do(t, http.MethodPatch, base+"/selection", "u-1", map[string]any{"currency": "usd"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "USD", decode[selectionDTO](t, rec).Currency)

	rec = e.do(t, http.MethodGet, base, "u-1", nil)
	require.False(t, decode[sessionDTO](t, rec).QuoteCached)

	rec = e.do(t, http.MethodGet, base+"/quote", "u-1", nil)
	q = decode[quoteDTO](t, rec)
	require.Equal(t, "$13.10", q.DisplayPrice)
	require.Equal(t, "EUR", q.SourceCurrency)
}

func TestQuote_PlaceholderWhenPricingFails(t *testing.T) {
	e := setup(t)
	s := e.startSession(t, "u-1", map[string]any{"course_type": "exam"})

	rec := e.do(t, http.MethodGet, "/sessions/"+s.SessionID+"/quote", "u-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	q := decode[quoteDTO](t, rec)
	require.False(t, q.Available)
	require.Equal(t, application.PriceUnavailablePlaceholder, q.DisplayPrice)
	require.Nil(t, q.RawPrice)
}

func TestInvalidate(t *testing.T) {
	e := setup(t)
	s := e.startSession(t, "u-1", nil)
	base := "/sessions/" + s.SessionID

	e.do(t, http.MethodGet, base+"/quote", "u-1", nil)
	rec := e.do(t, http.MethodPost, base+"/invalidate", "u-1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(t, http.MethodGet, base, "u-1", nil)
	require.False(t, decode[sessionDTO](t, rec).QuoteCached)
}

func TestSlots(t *testing.T) {
	e := setup(t)
	s := e.startSession(t, "u-1", nil)
	base := "/sessions/" + s.SessionID

	rec := e.do(t, http.MethodGet, base+"/slots?from=2025-03-01T08:00:00Z&to=2025-03-01T12:00:00Z&time_zone=Europe/Madrid", "u-1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, decode[[]slotDTO](t, rec), 3)

	rec = e.do(t, http.MethodGet, base+"/slots?from=yesterday&to=2025-03-01T12:00:00Z", "u-1", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodGet, base+"/slots?from=2025-03-01T08:00:00Z", "u-1", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodGet, base+"/slots?from=2025-03-01T08:00:00Z&to=2025-03-01T12:00:00Z&time_zone=Mars/Base", "u-1", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBooking_Flow(t *testing.T) {
	e := setup(t)
	s := e.startSession(t, "u-1", map[string]any{"slot_start": "2025-03-01T10:00:00Z"})
	base := "/sessions/" + s.SessionID
	attendee := map[string]string{"name": "Ana", "email": "ana@example.com", "time_zone": "Europe/Madrid"}

	rec := e.do(t, http.MethodPost, base+"/bookings", "u-1", attendee, headerIdempotency, "k-1")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, "no quote computed yet")

	rec = e.do(t, http.MethodGet, base+"/quote", "u-1", nil)
	require.True(t, decode[quoteDTO](t, rec).CanSubmit)

	rec = e.do(t, http.MethodPost, base+"/bookings", "u-1", attendee, headerIdempotency, "k-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	b := decode[bookingDTO](t, rec)
	require.Equal(t, "fake-1", b.BookingID)

	rec = e.do(t, http.MethodPost, base+"/bookings", "u-1", attendee)
	require.Equal(t, http.StatusConflict, rec.Code, "slot already taken")
}

func TestEndSession(t *testing.T) {
	e := setup(t)
	s := e.startSession(t, "u-1", nil)
	rec := e.do(t, http.MethodDelete, "/sessions/"+s.SessionID, "u-1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = e.do(t, http.MethodGet, "/sessions/"+s.SessionID, "u-1", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConvert(t *testing.T) {
	e := setup(t)
	rec := e.do(t, http.MethodGet, "/rates/convert?amount=12&from=EUR&to=USD", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	c := decode[conversionDTO](t, rec)
	require.InDelta(t, 13.10, c.Converted, 1e-9)
	require.Equal(t, "$13.10", c.Display)

	rec = e.do(t, http.MethodGet, "/rates/convert?amount=abc&from=EUR&to=USD", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = e.do(t, http.MethodGet, "/rates/convert?amount=1&from=EUR&to=JPY", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConvert_RejectsNonFiniteAmount(t *testing.T) {
	e := setup(t)
	for _, amount := range []string{"NaN", "Inf", "-Inf", "%2BInf"} {
		rec := e.do(t, http.MethodGet, "/rates/convert?amount="+amount+"&from=EUR&to=USD", "", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code, amount)
		require.JSONEq(t, `{"code":400,"message":"amount: expected a finite number"}`, rec.Body.String(), amount)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	e := setup(t)
	e.do(t, http.MethodGet, "/healthz", "", nil)
	rec := e.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "lessonquote_http_requests_total"))
}

func TestUnknownRoute(t *testing.T) {
	e := setup(t)
	rec := e.do(t, http.MethodGet, "/nope", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"code":404,"message":"route not found"}`, rec.Body.String())
}
