package handlers

import (
	"errors"
	"net/http"

	"github.com/RahulSJav/Expenses/internal/models"
	"github.com/RahulSJav/Expenses/internal/service"
	"github.com/RahulSJav/Expenses/internal/storage"
)

// ExpensesViewModel is the data passed to the expenses view template.
type ExpensesViewModel struct {
	PreferredName string
	Expenses      []models.Expense
	TotalAmount   float64
	TotalRecords  int
	UniqueDays    int

	// Dropdown content, always the global distinct sets.
	Categories   []string
	Descriptions []string

	SelectedCategory    string
	SelectedDescription string

	Flash *Flash
}

// ListExpenses renders the expenses overview, filtered by the category and
// description query parameters when present.
func (h *Handlers) ListExpenses(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	filter := storage.Filter{
		Category:    r.URL.Query().Get("category"),
		Description: r.URL.Query().Get("description"),
	}

	overview, err := h.svc.Overview(filter)
	if err != nil {
		h.log.Error("overview failed", "error", err)
		h.renderError(w, http.StatusInternalServerError)
		return
	}

	h.render(w, "expenses.html", ExpensesViewModel{
		PreferredName:       user.PreferredName,
		Expenses:            overview.Expenses,
		TotalAmount:         overview.TotalAmount,
		TotalRecords:        overview.TotalRecords,
		UniqueDays:          overview.UniqueDays,
		Categories:          overview.Categories,
		Descriptions:        overview.Descriptions,
		SelectedCategory:    filter.Category,
		SelectedDescription: filter.Description,
		Flash:               h.popFlash(w, r),
	})
}

// SubmitExpenses dispatches the expenses form on its explicit action field:
// "add" inserts a new record, "delete" removes the checked ones. Anything
// else is a bad request.
func (h *Handlers) SubmitExpenses(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	if err := r.ParseForm(); err != nil {
		h.setFlash(w, "danger", "Invalid form submission")
		http.Redirect(w, r, "/expenses", http.StatusFound)
		return
	}

	switch r.FormValue("action") {
	case "add":
		h.addExpense(w, r, user)
	case "delete":
		h.deleteExpenses(w, r)
	default:
		http.Error(w, "Unknown action", http.StatusBadRequest)
	}
}

func (h *Handlers) addExpense(w http.ResponseWriter, r *http.Request, user *models.User) {
	err := h.svc.Add(
		user.ID,
		r.FormValue("category"),
		r.FormValue("description"),
		r.FormValue("amount"),
		r.FormValue("date"),
	)
	switch {
	case errors.Is(err, service.ErrInvalidSelection):
		h.setFlash(w, "danger", "Invalid Category or Description selected.")
	case errors.Is(err, service.ErrInvalidFormat):
		h.setFlash(w, "danger", "Invalid date or amount format.")
	case err != nil:
		h.log.Error("add expense failed", "error", err)
		h.renderError(w, http.StatusInternalServerError)
		return
	default:
		h.setFlash(w, "success", "Expense added successfully!")
	}
	http.Redirect(w, r, "/expenses", http.StatusFound)
}

func (h *Handlers) deleteExpenses(w http.ResponseWriter, r *http.Request) {
	ids := r.Form["expense_ids"]

	switch err := h.svc.Delete(ids); {
	case errors.Is(err, service.ErrNoSelection):
		h.setFlash(w, "danger", "No expenses selected for deletion")
	case err != nil:
		h.log.Error("delete expenses failed", "error", err)
		h.renderError(w, http.StatusInternalServerError)
		return
	default:
		h.setFlash(w, "success", "Selected expenses deleted successfully!")
	}
	http.Redirect(w, r, "/expenses", http.StatusFound)
}
