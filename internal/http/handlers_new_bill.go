package http

import (
	"errors"
	"io"
	"net/http"

	"billed/internal/containers"
	"billed/internal/core"
	"billed/internal/log"
	"billed/internal/routes"
	"billed/internal/views"
)

// validationMessages maps input errors to the message shown above the form.
var validationMessages = map[error]string{
	core.ErrInvalidAmount:    "Montant invalide",
	core.ErrEmptyName:        "Nom de la dépense manquant",
	core.ErrEmptyType:        "Type de dépense manquant",
	core.ErrInvalidPct:       "Pourcentage de TVA invalide",
	core.ErrMissingReceipt:   "Justificatif manquant",
	core.ErrMalformedDate:    "Date invalide",
	core.ErrUnsupportedFile:  "Seuls les justificatifs jpg, jpeg et png sont acceptés",
	core.ErrCommentaryLength: "Commentaire trop long (500 caractères maximum)",
}

func validationMessage(err error) string {
	for target, msg := range validationMessages {
		if errors.Is(err, target) {
			return msg
		}
	}
	return "Note de frais invalide"
}

func (s *Server) handleNewBillPage(w http.ResponseWriter, r *http.Request) {
	user, _, err := currentUser(r)
	if err != nil {
		navigate(w, r, routes.Login)
		return
	}
	s.render(w, r, http.StatusOK, func(out io.Writer) error {
		return s.deps.Renderer.NewBill(out, views.NewBillData{User: user})
	})
}

// handleCreateBill stores the uploaded receipt, creates the bill and sends
// the user back to the bills page. Invalid input re-renders the form with 422.
func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	user, st, err := currentUser(r)
	if err != nil {
		navigate(w, r, routes.Login)
		return
	}

	req, bad := ParseNewBillForm(w, r)
	if bad != nil {
		bad.Write(w)
		return
	}
	defer req.Close()

	target := ""
	form := containers.NewNewBill(containers.NewBillOptions{
		Navigate: func(route string) { target = route },
		Store:    s.deps.Bills,
		Session:  st,
		Logger:   log.FromContext(r.Context()),
	})

	reject := func(status int, msg string) {
		s.render(w, r, status, func(out io.Writer) error {
			return s.deps.Renderer.NewBill(out, views.NewBillData{
				Form:  FormValues(req.Submission),
				Error: msg,
				User:  user,
			})
		})
	}

	if req.File == nil {
		reject(http.StatusUnprocessableEntity, validationMessage(core.ErrMissingReceipt))
		return
	}
	if err := form.HandleChangeFile(req.Submission.FileName); err != nil {
		reject(http.StatusUnprocessableEntity, validationMessage(err))
		return
	}

	stored, url, err := s.receipts.Save(req.File, req.Submission.FileName)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Receipt upload failed", log.FieldOwner, user.Email, log.FieldError, err)
		reject(http.StatusInternalServerError, "Erreur lors de l'enregistrement du justificatif")
		return
	}
	req.Submission.FileURL = url

	id, err := form.HandleSubmit(r.Context(), req.Submission)
	if err != nil {
		s.receipts.Remove(stored)
		if containers.IsValidationError(err) {
			reject(http.StatusUnprocessableEntity, validationMessage(err))
			return
		}
		s.logger.ErrorContext(r.Context(), "Bill creation failed", log.FieldOwner, user.Email, log.FieldError, err)
		reject(http.StatusInternalServerError, "Erreur lors de l'enregistrement de la note de frais")
		return
	}

	s.deps.Metrics.BillsCreated.Inc()
	cents, _ := core.ParseDecimalToCents(req.Submission.Amount)
	log.NewStructuredLogger(s.logger).LogBillCreated(r.Context(), id, user.Email, req.Submission.Date, cents)

	if target == "" {
		target = routes.Bills
	}
	if isHTMX(r) {
		NewHTMXResponse().
			TriggerBillCreated(id).
			TriggerSuccessNotification("Note de frais envoyée").
			Redirect(target).
			Write(w)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
