package handler

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/msomdec/expense-tracker/internal/domain"
	"github.com/msomdec/expense-tracker/internal/service"
)

// TransactionHandler serves the signed-in user's transactions and the
// queries derived from them.
type TransactionHandler struct {
	ledger *service.Ledger
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ledger *service.Ledger) *TransactionHandler {
	return &TransactionHandler{ledger: ledger}
}

func (h *TransactionHandler) store(w http.ResponseWriter, r *http.Request) (*service.TransactionStore, bool) {
	txs, err := h.ledger.Transactions(r.Context())
	if err != nil {
		writeServiceError(w, "open transactions", err)
		return nil, false
	}
	return txs, true
}

// HandleList returns transactions, most recently created first.
// GET /api/transactions?q=coffee&category=food
func (h *TransactionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	txs, ok := h.store(w, r)
	if !ok {
		return
	}

	items := txs.Search(r.URL.Query().Get("q"))
	if cat := r.URL.Query().Get("category"); cat != "" {
		items = service.FilterByCategory(items, domain.CategoryID(cat))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": toTransactionDTOs(items),
	})
}

// HandleRecent returns the transactions with the latest dates.
// GET /api/transactions/recent?limit=5
func (h *TransactionHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", service.DefaultRecentLimit)
	if err != nil || limit < 1 {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer.")
		return
	}
	txs, ok := h.store(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": toTransactionDTOs(txs.Recent(limit)),
	})
}

// HandleGet returns one transaction.
// GET /api/transactions/{id}
func (h *TransactionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	txs, ok := h.store(w, r)
	if !ok {
		return
	}
	tx, err := txs.Get(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "get transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transaction": toTransactionDTO(tx)})
}

// HandleCreate adds a transaction.
// POST /api/transactions
// Request:  {"type":"expense","amount":"12.50","description":"...","category":"food","date":"2025-03-09","notes":""}
// Response: 201 {"transaction": {...}}
func (h *TransactionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	txs, ok := h.store(w, r)
	if !ok {
		return
	}

	tx, err := txs.Create(r.Context(), req.input())
	if err != nil {
		writeServiceError(w, "create transaction", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"transaction": toTransactionDTO(tx)})
}

// HandleUpdate replaces a transaction's fields.
// PUT /api/transactions/{id}
func (h *TransactionHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	txs, ok := h.store(w, r)
	if !ok {
		return
	}

	tx, err := txs.Update(r.Context(), r.PathValue("id"), req.input())
	if err != nil {
		writeServiceError(w, "update transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transaction": toTransactionDTO(tx)})
}

// HandleDelete removes a transaction. Unknown ids also return 204.
// DELETE /api/transactions/{id}
func (h *TransactionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	txs, ok := h.store(w, r)
	if !ok {
		return
	}
	if err := txs.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, "delete transaction", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSummary returns the dashboard totals.
// GET /api/summary
func (h *TransactionHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	txs, ok := h.store(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summary": toSummaryDTO(txs.Summarize())})
}

// HandleDailyChart returns per-day income and expense for the trailing window.
// GET /api/charts/daily?days=7
func (h *TransactionHandler) HandleDailyChart(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r, "days", service.DefaultChartDays)
	if err != nil || days < 1 || days > 366 {
		writeError(w, http.StatusBadRequest, "days must be between 1 and 366.")
		return
	}
	txs, ok := h.store(w, r)
	if !ok {
		return
	}

	buckets, err := txs.AggregateByDayWindow(days)
	if err != nil {
		writeServiceError(w, "aggregate by day", err)
		return
	}
	writeJSON(w, http.StatusOK, toDailyChartDTO(buckets))
}

// HandleCategoryChart returns expense totals per category.
// GET /api/charts/categories
func (h *TransactionHandler) HandleCategoryChart(w http.ResponseWriter, r *http.Request) {
	txs, ok := h.store(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": toCategoryTotalDTOs(txs.AggregateByCategory()),
	})
}

// HandleExportCSV downloads every transaction as CSV.
// GET /api/export/csv
func (h *TransactionHandler) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "text/csv; charset=utf-8", "csv", service.ExportCSV)
}

// HandleExportXLSX downloads every transaction as an Excel workbook.
// GET /api/export/xlsx
func (h *TransactionHandler) HandleExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx", service.ExportXLSX)
}

func (h *TransactionHandler) export(w http.ResponseWriter, r *http.Request, contentType, ext string, write func(w io.Writer, items []domain.Transaction) error) {
	txs, ok := h.store(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, txs.List()); err != nil {
		slog.Error("export transactions", "format", ext, "error", err)
		writeError(w, http.StatusInternalServerError, "Export failed.")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"transactions_%s.%s\"", time.Now().Format("20060102"), ext))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("write export", "error", err)
	}
}

// HandleCategories returns the category catalog, optionally limited to one
// transaction type.
// GET /api/categories?type=income
func HandleCategories(w http.ResponseWriter, r *http.Request) {
	cats := domain.Categories()
	if raw := r.URL.Query().Get("type"); raw != "" {
		t, err := domain.ParseTransactionType(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		cats = domain.CategoriesFor(t)
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": cats})
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
