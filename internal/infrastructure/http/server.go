package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"time"

	"lessonquote-service/internal/application"
	"lessonquote-service/internal/domain"
	"lessonquote-service/internal/infrastructure/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

type Server struct {
	svc     *application.QuoteService
	metrics *metrics.Metrics
	ping    func(ctx context.Context) error
}

func NewServer(svc *application.QuoteService, m *metrics.Metrics) *Server {
	return &Server{svc: svc, metrics: m}
}

// SetReadyCheck installs the dependency check used by /readyz.
func (s *Server) SetReadyCheck(fn func(ctx context.Context) error) { s.ping = fn }

func (s *Server) observer() HTTPObserver {
	if s.metrics == nil {
		return nil
	}
	return s.metrics
}

// session resolves the {id} path parameter to a session owned by the caller.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*application.BookingSession, bool) {
	var id string
	if err := runtime.BindStyledParameterWithLocation("simple", false, "id", runtime.ParamLocationPath, chi.URLParam(r, "id"), &id); err != nil {
		badRequest(w, "invalid session id")
		return nil, false
	}
	sess, err := s.svc.Session(id)
	if err != nil {
		writeAppError(w, r, err)
		return nil, false
	}
	if sess.UserID() != userFromContext(r.Context()) {
		writeAppError(w, r, application.ErrNotFound)
		return nil, false
	}
	return sess, true
}

func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) sessionDTO(sess *application.BookingSession) sessionDTO {
	sel, _, cached := sess.Snapshot()
	return sessionDTO{
		SessionID:   sess.ID(),
		UserID:      sess.UserID(),
		Selection:   toSelectionDTO(sel),
		QuoteCached: cached,
	}
}

func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var body selectionBody
	if err := decodeBody(r, &body); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	patch, err := body.patch()
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	sel := application.DefaultSelection().With(patch)
	sess, err := s.svc.StartSession(r.Context(), userFromContext(r.Context()), sel)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.sessionDTO(sess))
}

func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.sessionDTO(sess))
}

func (s *Server) EndSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := s.svc.EndSession(sess.ID()); err != nil {
		writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) UpdateSelection(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var body selectionBody
	if err := decodeBody(r, &body); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	patch, err := body.patch()
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	sel, err := s.svc.UpdateSelection(r.Context(), sess.ID(), patch)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSelectionDTO(sel))
}

func (s *Server) Invalidate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := s.svc.Invalidate(r.Context(), sess.ID()); err != nil {
		writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) GetQuote(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	view, err := s.svc.CurrentQuote(r.Context(), sess.ID())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteDTO(view))
}

func (s *Server) ListSlots(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var (
		from, to time.Time
		tz       *string
	)
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, true, "from", q, &from); err != nil {
		badRequest(w, "from: expected RFC3339 timestamp")
		return
	}
	if err := runtime.BindQueryParameter("form", true, true, "to", q, &to); err != nil {
		badRequest(w, "to: expected RFC3339 timestamp")
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "time_zone", q, &tz); err != nil {
		badRequest(w, "invalid time_zone")
		return
	}
	zone := ""
	if tz != nil {
		if _, err := time.LoadLocation(*tz); err != nil {
			badRequest(w, "unknown time_zone")
			return
		}
		zone = *tz
	}
	slots, err := s.svc.AvailableSlots(r.Context(), sess.ID(), from, to, zone)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	out := make([]slotDTO, 0, len(slots))
	for _, sl := range slots {
		out = append(out, slotDTO{Start: sl.Start, End: sl.End})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var body bookingBody
	if err := decodeBody(r, &body); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	b, err := s.svc.ConfirmBooking(r.Context(), sess.ID(), r.Header.Get(headerIdempotency), domain.Attendee{
		Name:     body.Name,
		Email:    body.Email,
		TimeZone: body.TimeZone,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, bookingDTO{BookingID: b.ID, Status: b.Status, Start: b.Start, End: b.End})
}

func (s *Server) ConvertAmount(w http.ResponseWriter, r *http.Request) {
	var (
		amount   float64
		from, to string
	)
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, true, "amount", q, &amount); err != nil {
		badRequest(w, "amount: expected a number")
		return
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		badRequest(w, "amount: expected a finite number")
		return
	}
	if err := runtime.BindQueryParameter("form", true, true, "from", q, &from); err != nil {
		badRequest(w, "from is required")
		return
	}
	if err := runtime.BindQueryParameter("form", true, true, "to", q, &to); err != nil {
		badRequest(w, "to is required")
		return
	}
	fc, err := domain.ParseCurrency(from)
	if err != nil {
		badRequest(w, "from: "+err.Error())
		return
	}
	tc, err := domain.ParseCurrency(to)
	if err != nil {
		badRequest(w, "to: "+err.Error())
		return
	}
	conv := s.svc.Converter()
	out, err := conv.Convert(r.Context(), amount, fc, tc)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conversionDTO{
		Amount:    amount,
		From:      string(fc),
		To:        string(tc),
		Converted: out,
		Display:   conv.Format(out, tc),
	})
}
