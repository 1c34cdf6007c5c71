package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"billed/internal/containers"
	"billed/internal/core"
	"billed/internal/log"
	"billed/internal/metrics"
	"billed/internal/routes"
	"billed/internal/session"
	"billed/internal/store"
	"billed/internal/views"
)

// currentUser returns the identity attached by the session middleware.
func currentUser(r *http.Request) (core.User, session.Store, error) {
	st := session.FromContext(r.Context())
	user, err := session.Current(st)
	return user, st, err
}

// handleBills renders the bills page in its loading state and opens a new
// navigation; the list itself is fetched by the page through /ui/bills.
func (s *Server) handleBills(w http.ResponseWriter, r *http.Request) {
	user, _, err := currentUser(r)
	if err != nil {
		navigate(w, r, routes.Login)
		return
	}

	seq := s.deps.Nav.Begin(user.Email)
	s.render(w, r, http.StatusOK, func(out io.Writer) error {
		return s.deps.Renderer.Bills(out, views.BillsData{Loading: true, Nav: seq, User: user})
	})
}

// handleBillsContent fetches the list for navigation ?nav= and renders the
// loaded or error state. A superseded navigation gets 204 so htmx keeps
// whatever the newer one rendered.
func (s *Server) handleBillsContent(w http.ResponseWriter, r *http.Request) {
	user, st, err := currentUser(r)
	if err != nil {
		navigate(w, r, routes.Login)
		return
	}
	seq := ParseNavSeq(r.URL.Query())

	bills := containers.NewBills(containers.Options{
		Store:   s.deps.Bills,
		Session: st,
		Logger:  log.FromContext(r.Context()),
	})
	page := containers.NewPage(bills, s.deps.Nav, user.Email, seq)

	ctx, cancel := context.WithTimeout(r.Context(), s.deps.FetchTimeout)
	defer cancel()

	data, err := page.Load(ctx)
	if errors.Is(err, containers.ErrStaleNavigation) {
		s.deps.Metrics.BillFetches.WithLabelValues(metrics.OutcomeStale).Inc()
		s.logger.DebugContext(r.Context(), "Stale bills load dropped",
			log.FieldOwner, user.Email,
			log.FieldNav, seq)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	outcome := metrics.OutcomeLoaded
	if page.State() == containers.Errored {
		outcome = metrics.OutcomeError
		s.logger.WarnContext(r.Context(), "Bills fetch failed",
			log.FieldOwner, user.Email,
			log.FieldError, data.Error)
	}
	s.deps.Metrics.BillFetches.WithLabelValues(outcome).Inc()

	data.User = user
	s.render(w, r, http.StatusOK, func(out io.Writer) error {
		return s.deps.Renderer.BillsContent(out, data)
	})
}

// handleReceipt opens the receipt of bill ?id= in the modal, the way a click
// on its eye icon does.
func (s *Server) handleReceipt(w http.ResponseWriter, r *http.Request) {
	user, st, err := currentUser(r)
	if err != nil {
		navigate(w, r, routes.Login)
		return
	}
	id, bad := ParseBillID(r.URL.Query())
	if bad != nil {
		bad.Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.deps.FetchTimeout)
	defer cancel()

	bill, err := s.deps.Bills.GetBill(ctx, id)
	if err != nil || bill.Email != user.Email {
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			s.logger.ErrorContext(r.Context(), "Receipt lookup failed", log.FieldBillID, id, log.FieldError, err)
			InternalServerError("Justificatif indisponible").Write(w)
			return
		}
		NotFoundError("Justificatif introuvable").Write(w)
		return
	}

	modal := views.NewModal(views.DefaultModalWidth)
	page := containers.NewBills(containers.Options{
		Session: st,
		Modal:   modal,
		Logger:  log.FromContext(r.Context()),
	})
	icon := containers.EyeIcon(bill)
	if click, ok := page.Bind([]containers.Element{icon})[icon.ID]; ok {
		click()
	}
	if modal.ShowCount() == 0 {
		InternalServerError("Justificatif indisponible").Write(w)
		return
	}

	var buf bytes.Buffer
	if err := s.deps.Renderer.ReceiptModal(&buf, modal.Data()); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed", log.FieldError, err)
		InternalServerError("Erreur d'affichage").Write(w)
		return
	}
	NewHTMXResponse().TriggerModalOpen().BodyHTML(buf.String()).Write(w)
}

// handleClickNewBill runs the new bill button action and forwards the
// resulting navigation to the browser.
func (s *Server) handleClickNewBill(w http.ResponseWriter, r *http.Request) {
	_, st, err := currentUser(r)
	if err != nil {
		navigate(w, r, routes.Login)
		return
	}

	target := ""
	bills := containers.NewBills(containers.Options{
		Navigate: func(route string) { target = route },
		Session:  st,
		Logger:   log.FromContext(r.Context()),
	})
	bills.Bind(nil)[containers.NewBillButtonID]()

	if target == "" {
		target = routes.Bills
	}
	navigate(w, r, target)
}

// handleDashboard lists every employee's bills for administrators.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, _, err := currentUser(r)
	if err != nil {
		navigate(w, r, routes.Login)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.deps.FetchTimeout)
	defer cancel()

	all, err := s.deps.Bills.ListBills(ctx, "")
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Dashboard fetch failed", log.FieldError, err)
		InternalServerError("Impossible de charger les notes de frais").Write(w)
		return
	}

	out := containers.FormatBills(r.Context(), log.FromContext(r.Context()), all)

	s.render(w, r, http.StatusOK, func(w io.Writer) error {
		return s.deps.Renderer.Dashboard(w, views.DashboardData{Data: out, User: user})
	})
}
