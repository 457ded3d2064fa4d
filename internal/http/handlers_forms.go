package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"workorders/internal/lineitems"
	applog "workorders/internal/log"
	"workorders/internal/services"
)

type openFormRequest struct {
	TaskID int64  `json:"task_id"`
	Kind   string `json:"kind"`
}

// rowPatch is the body of a row edit. Absent fields are left alone.
type rowPatch struct {
	Category        *string          `json:"category"`
	ItemID          *int64           `json:"item_id"`
	Quantity        *decimal.Decimal `json:"quantity"`
	CompanyProvided *bool            `json:"company_provided"`
}

func (p rowPatch) edit() services.RowEdit {
	e := services.RowEdit{
		ItemID:          p.ItemID,
		Quantity:        p.Quantity,
		CompanyProvided: p.CompanyProvided,
	}
	if p.Category != nil {
		c := sanitizeInput(*p.Category)
		e.Category = &c
	}
	return e
}

func (s *Server) handleOpenForm(w http.ResponseWriter, r *http.Request) {
	var req openFormRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.TaskID <= 0 {
		s.writeError(w, r, badRequest("task_id must be positive"))
		return
	}
	kind, err := lineitems.ParseKind(req.Kind)
	if err != nil {
		s.writeError(w, r, badRequest("%v", err))
		return
	}

	view, err := s.forms.Open(r.Context(), req.TaskID, kind)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/forms/"+view.ID)
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request) {
	view, err := s.forms.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleCloseForm(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.forms.Close(id)
	applog.FromContext(r.Context()).DebugContext(r.Context(), "Form closed",
		applog.FieldFormID, id,
		applog.FieldOperation, applog.OpClose)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubmitForm(w http.ResponseWriter, r *http.Request) {
	res, err := s.forms.Submit(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAddRow(w http.ResponseWriter, r *http.Request) {
	list, err := lineitems.ParseList(r.PathValue("list"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := s.forms.AddRow(r.PathValue("id"), list)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleEditRow(w http.ResponseWriter, r *http.Request) {
	list, index, err := pathRow(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var patch rowPatch
	if err := decodeJSON(r, &patch, false); err != nil {
		s.writeError(w, r, err)
		return
	}

	view, err := s.forms.EditRow(r.PathValue("id"), list, index, patch.edit())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).DebugContext(r.Context(), "Row edited",
		applog.NewFields().
			WithRow(string(list), index).
			WithOperation(applog.OpEdit).
			ToSlice()...)
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleRemoveRow(w http.ResponseWriter, r *http.Request) {
	list, index, err := pathRow(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := s.forms.RemoveRow(r.PathValue("id"), list, index)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleRowOptions(w http.ResponseWriter, r *http.Request) {
	list, index, err := pathRow(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	items, err := s.forms.Options(r.PathValue("id"), list, index)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}
