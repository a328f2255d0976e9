package hrest

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"gl-service/internal/domain"
	"gl-service/internal/response"
	"gl-service/internal/usecase"
	"gl-service/internal/xerrors"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type GLRestHandler struct {
	journalUC     *usecase.JournalUsecase
	postingUC     *usecase.PostingUsecase
	revaluationUC *usecase.RevaluationUsecase
	bankUC        *usecase.BankAccountUsecase
	subledgerUC   *usecase.SubledgerUsecase
}

func NewGLRestHandler(
	journalUC *usecase.JournalUsecase,
	postingUC *usecase.PostingUsecase,
	revaluationUC *usecase.RevaluationUsecase,
	bankUC *usecase.BankAccountUsecase,
	subledgerUC *usecase.SubledgerUsecase,
) *GLRestHandler {
	return &GLRestHandler{
		journalUC:     journalUC,
		postingUC:     postingUC,
		revaluationUC: revaluationUC,
		bankUC:        bankUC,
		subledgerUC:   subledgerUC,
	}
}

func (h *GLRestHandler) registerRoutes(r chi.Router) {
	r.Route("/gl", func(r chi.Router) {
		r.Post("/journals", h.CreateJournal)
		r.Get("/journals/{id}", h.GetJournal)
		r.Get("/journals/voucher/{voucherNo}", h.GetJournalByVoucher)
		r.Post("/journals/{id}/reverse", h.ReverseJournal)
		r.Get("/accounts/{id}/journals", h.ListJournalsByAccount)
		r.Get("/accounts/{id}/activity", h.GetAccountActivity)

		r.Get("/subledger/{refCode}", h.GetSubledgerTransaction)
		r.Get("/counterparties/{id}/transactions", h.ListCounterpartyTransactions)

		r.Post("/receipts", h.PostARReceipt)
		r.Post("/payments", h.PostAPPayment)
		r.Post("/transfers", h.PostBankTransfer)

		r.Post("/revaluations", h.PostFXRevaluation)
		r.Get("/bank-accounts/{id}/revaluations", h.ListRevaluations)

		r.Get("/bank-accounts", h.ListBankAccounts)
		r.Delete("/bank-accounts/{id}", h.DeactivateBankAccount)
	})
}

func (h *GLRestHandler) CreateJournal(w http.ResponseWriter, r *http.Request) {
	var in domain.JournalCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	j, err := h.journalUC.CreateJournal(r.Context(), &in)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, j)
}

func (h *GLRestHandler) GetJournal(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid journal id")
		return
	}

	j, err := h.journalUC.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, j)
}

func (h *GLRestHandler) GetJournalByVoucher(w http.ResponseWriter, r *http.Request) {
	voucherNo := chi.URLParam(r, "voucherNo")
	if voucherNo == "" {
		response.Error(w, http.StatusBadRequest, "voucher number required")
		return
	}

	j, err := h.journalUC.GetByVoucherNo(r.Context(), voucherNo)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, j)
}

type reverseJournalJSON struct {
	VoucherDate time.Time `json:"voucher_date,omitempty"`
	Remarks     string    `json:"remarks,omitempty"`
}

func (h *GLRestHandler) ReverseJournal(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid journal id")
		return
	}

	var in reverseJournalJSON
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			response.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	j, err := h.journalUC.ReverseJournal(r.Context(), id, in.VoucherDate, in.Remarks)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, j)
}

func (h *GLRestHandler) ListJournalsByAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid account id")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	journals, err := h.journalUC.ListByAccount(r.Context(), accountID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, journals)
}

func (h *GLRestHandler) GetAccountActivity(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid account id")
		return
	}
	currency := r.URL.Query().Get("currency")
	if currency == "" {
		response.Error(w, http.StatusBadRequest, "currency query parameter required")
		return
	}
	cutoff := time.Now()
	if asOf := r.URL.Query().Get("as_of"); asOf != "" {
		cutoff, err = time.Parse("2006-01-02", asOf)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "as_of must be YYYY-MM-DD")
			return
		}
	}

	activity, err := h.journalUC.GetAccountActivity(r.Context(), accountID, currency, cutoff)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, activity)
}

type postedJournalJSON struct {
	Journal   *domain.Journal              `json:"journal"`
	Subledger *domain.SubledgerTransaction `json:"subledger,omitempty"`
}

func (h *GLRestHandler) PostARReceipt(w http.ResponseWriter, r *http.Request) {
	var in usecase.ARReceiptInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	j, sub, err := h.postingUC.PostARReceipt(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, postedJournalJSON{Journal: j, Subledger: sub})
}

func (h *GLRestHandler) PostAPPayment(w http.ResponseWriter, r *http.Request) {
	var in usecase.APPaymentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	j, sub, err := h.postingUC.PostAPPayment(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, postedJournalJSON{Journal: j, Subledger: sub})
}

func (h *GLRestHandler) PostBankTransfer(w http.ResponseWriter, r *http.Request) {
	var in usecase.BankTransferInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	j, err := h.postingUC.PostBankTransfer(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, postedJournalJSON{Journal: j})
}

func (h *GLRestHandler) PostFXRevaluation(w http.ResponseWriter, r *http.Request) {
	var in usecase.RevaluationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.revaluationUC.PostFXRevaluation(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusCreated
	if result.Journal == nil {
		// no-op revaluation: figures only, nothing was written
		status = http.StatusOK
	}
	response.JSON(w, status, result)
}

func (h *GLRestHandler) ListRevaluations(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid bank account id")
		return
	}

	runs, err := h.revaluationUC.ListRuns(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, runs)
}

func (h *GLRestHandler) ListBankAccounts(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	accounts, err := h.bankUC.List(r.Context(), activeOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, accounts)
}

func (h *GLRestHandler) DeactivateBankAccount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid bank account id")
		return
	}

	if err := h.bankUC.Deactivate(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"id": id, "is_active": false})
}

// GetSubledgerTransaction looks a transaction up by its reference code, or
// by numeric id when the path segment parses as one.
func (h *GLRestHandler) GetSubledgerTransaction(w http.ResponseWriter, r *http.Request) {
	refCode := chi.URLParam(r, "refCode")
	if refCode == "" {
		response.Error(w, http.StatusBadRequest, "reference code required")
		return
	}

	var (
		txn *domain.SubledgerTransaction
		err error
	)
	if id, perr := strconv.ParseInt(refCode, 10, 64); perr == nil {
		txn, err = h.subledgerUC.GetByID(r.Context(), id)
	} else {
		txn, err = h.subledgerUC.GetByRefCode(r.Context(), refCode)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, txn)
}

func (h *GLRestHandler) ListCounterpartyTransactions(w http.ResponseWriter, r *http.Request) {
	counterpartyID := chi.URLParam(r, "id")
	if counterpartyID == "" {
		response.Error(w, http.StatusBadRequest, "counterparty id required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	txns, err := h.subledgerUC.ListByCounterparty(r.Context(), counterpartyID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, txns)
}

// writeError maps the engine's error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var ve *xerrors.ValidationError
	if errors.As(err, &ve) {
		response.RuleError(w, http.StatusUnprocessableEntity, ve.Rule, ve.Msg)
		return
	}
	var ce *xerrors.ConflictError
	if errors.As(err, &ce) {
		response.Error(w, http.StatusConflict, ce.Msg)
		return
	}
	if errors.Is(err, xerrors.ErrNotFound) {
		response.Error(w, http.StatusNotFound, err.Error())
		return
	}
	response.Error(w, http.StatusInternalServerError, err.Error())
}

func (h *GLRestHandler) Start(addr string) {
	r := chi.NewRouter()

	// Middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	h.registerRoutes(r)

	server := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	log.Printf("GL posting REST service running on %s", addr)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("failed to start server: %v", err)
	}
}
