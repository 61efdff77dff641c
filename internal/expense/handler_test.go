package expense_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/group-expenses/internal/auth"
	"github.com/frahmantamala/group-expenses/internal/expense"
	"github.com/frahmantamala/group-expenses/internal/pagination"
	"github.com/frahmantamala/group-expenses/internal/payment"
	"github.com/frahmantamala/group-expenses/internal/transport/middleware"
	"github.com/go-chi/chi"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("ExpenseHandler", func() {
	var (
		e      *env
		router http.Handler
	)

	ginkgo.BeforeEach(func() {
		e = newEnv()
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		identifier := auth.NewService(e.users, e.tokens, 0, lg)
		h := expense.NewHandler(e.service, "https://api.example.com", pagination.Config{PerPage: 20, MaxPerPage: 100})

		r := chi.NewRouter()
		r.Use(middleware.Identify(identifier, lg))
		r.Route("/groups/{id}", func(r chi.Router) {
			r.Use(middleware.GroupScope(e.groups, lg))
			r.Get("/expenses", h.ListExpenses)
			r.Post("/expenses", h.CreateExpense)
			r.Get("/expenses/{eid}", h.GetExpense)
			r.Put("/expenses/{eid}", h.UpdateExpense)
			r.Delete("/expenses/{eid}", h.DeleteExpense)
			r.Post("/expenses/{eid}/approve", h.ApproveExpense)
			r.Post("/expenses/{eid}/pay", h.PayExpense)
		})
		router = r
	})

	ginkgo.AfterEach(func() {
		e.close()
	})

	do := func(method, path string, userID int64, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			gomega.Expect(json.NewEncoder(&buf).Encode(body)).To(gomega.Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		if userID != 0 {
			token, _, err := e.tokens.GenerateAccessToken(userID)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	errorOf := func(rec *httptest.ResponseRecorder) map[string]interface{} {
		var body struct {
			Error map[string]interface{} `json:"error"`
		}
		gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(gomega.Succeed())
		return body.Error
	}

	expensesPath := func() string { return fmt.Sprintf("/groups/%d/expenses", e.g.ID) }
	expensePath := func(id int64, suffix string) string {
		return fmt.Sprintf("/groups/%d/expenses/%d%s", e.g.ID, id, suffix)
	}

	validBody := map[string]interface{}{"expense": map[string]interface{}{
		"title":        "Hotel",
		"notes":        "two nights",
		"category":     "Travel",
		"amount":       12000,
		"currency":     "USD",
		"payoutMethod": "manual",
	}}

	ginkgo.Describe("POST /groups/{id}/expenses", func() {
		ginkgo.It("should accept an anonymous submission", func() {
			rec := do(http.MethodPost, expensesPath(), 0, validBody)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))

			var body map[string]interface{}
			gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(gomega.Succeed())
			gomega.Expect(body["UserId"]).To(gomega.BeNil())
			gomega.Expect(body["GroupId"]).To(gomega.BeNumerically("==", e.g.ID))
			gomega.Expect(body["payoutMethod"]).To(gomega.Equal("manual"))
			gomega.Expect(body["status"]).To(gomega.Equal("PENDING"))
			gomega.Expect(body).NotTo(gomega.HaveKey("Version"))
		})

		ginkgo.It("should attach the authenticated submitter", func() {
			rec := do(http.MethodPost, expensesPath(), e.memberID, validBody)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))

			var body map[string]interface{}
			gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(gomega.Succeed())
			gomega.Expect(body["UserId"]).To(gomega.BeNumerically("==", e.memberID))
		})

		ginkgo.It("should write validation failures in the error envelope", func() {
			rec := do(http.MethodPost, expensesPath(), e.memberID, map[string]interface{}{"expense": map[string]interface{}{
				"title": "Hotel", "amount": -1, "currency": "USD", "payoutMethod": "manual",
			}})
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))

			apiErr := errorOf(rec)
			gomega.Expect(apiErr["code"]).To(gomega.BeNumerically("==", 400))
			gomega.Expect(apiErr["type"]).To(gomega.Equal("validation_failed"))
			gomega.Expect(apiErr["message"]).To(gomega.Equal("Validation error: Validation min failed"))
			gomega.Expect(apiErr["fields"]).To(gomega.ConsistOf("amount"))
		})

		ginkgo.It("should report a missing expense object", func() {
			rec := do(http.MethodPost, expensesPath(), e.memberID, nil)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))

			apiErr := errorOf(rec)
			gomega.Expect(apiErr["type"]).To(gomega.Equal("missing_required"))
			gomega.Expect(apiErr["fields"]).To(gomega.HaveKeyWithValue("expense", "Required field expense missing"))
		})

		ginkgo.It("should return 404 for an unknown group", func() {
			rec := do(http.MethodPost, "/groups/9999/expenses", 0, validBody)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNotFound))
		})

		ginkgo.It("should reject a tampered token", func() {
			req := httptest.NewRequest(http.MethodPost, expensesPath(), nil)
			req.Header.Set("Authorization", "Bearer not-a-jwt")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		})
	})

	ginkgo.Describe("GET /groups/{id}/expenses", func() {
		ginkgo.BeforeEach(func() {
			for i := 0; i < 3; i++ {
				e.submit(e.member, e.g, 1000, payment.MethodManual)
			}
		})

		ginkgo.It("should return the first page with link relations", func() {
			rec := do(http.MethodGet, expensesPath()+"?per_page=2", 0, nil)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))

			var list []map[string]interface{}
			gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &list)).To(gomega.Succeed())
			gomega.Expect(list).To(gomega.HaveLen(2))

			link := rec.Header().Get("Link")
			gomega.Expect(link).To(gomega.ContainSubstring(`rel="current"`))
			gomega.Expect(link).To(gomega.ContainSubstring(`rel="next"`))
			gomega.Expect(link).To(gomega.ContainSubstring("https://api.example.com" + expensesPath() + "?page=2&per_page=2>; rel=\"last\""))
		})

		ginkgo.It("should return the second page", func() {
			rec := do(http.MethodGet, expensesPath()+"?per_page=2&page=2", 0, nil)

			var list []map[string]interface{}
			gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &list)).To(gomega.Succeed())
			gomega.Expect(list).To(gomega.HaveLen(1))
			gomega.Expect(rec.Header().Get("Link")).NotTo(gomega.ContainSubstring(`rel="next"`))
		})

		ginkgo.It("should return only newer expenses for since_id without a Link header", func() {
			rec := do(http.MethodGet, expensesPath()+"?since_id=2", 0, nil)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))

			var list []map[string]interface{}
			gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &list)).To(gomega.Succeed())
			gomega.Expect(list).To(gomega.HaveLen(1))
			gomega.Expect(list[0]["id"]).To(gomega.BeNumerically(">", 2))
			gomega.Expect(rec.Header().Get("Link")).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("GET /groups/{id}/expenses/{eid}", func() {
		ginkgo.It("should return 404 for a missing expense", func() {
			rec := do(http.MethodGet, expensePath(123, ""), e.hostID, nil)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNotFound))
			gomega.Expect(errorOf(rec)["type"]).To(gomega.Equal("not_found"))
		})

		ginkgo.It("should return 404 for a non numeric id", func() {
			rec := do(http.MethodGet, fmt.Sprintf("/groups/%d/expenses/abc", e.g.ID), 0, nil)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNotFound))
		})
	})

	ginkgo.Describe("DELETE /groups/{id}/expenses/{eid}", func() {
		var exp *expense.Expense

		ginkgo.BeforeEach(func() {
			exp = e.submit(e.member, e.g, 1000, payment.MethodManual)
		})

		ginkgo.It("should return 401 without a token", func() {
			gomega.Expect(do(http.MethodDelete, expensePath(exp.ID, ""), 0, nil).Code).To(gomega.Equal(http.StatusUnauthorized))
		})

		ginkgo.It("should return 403 for a member", func() {
			gomega.Expect(do(http.MethodDelete, expensePath(exp.ID, ""), e.memberID, nil).Code).To(gomega.Equal(http.StatusForbidden))
		})

		ginkgo.It("should return 403 for an expense of another group", func() {
			foreign := e.submit(e.outsider, e.other, 1000, payment.MethodManual)
			gomega.Expect(do(http.MethodDelete, expensePath(foreign.ID, ""), e.hostID, nil).Code).To(gomega.Equal(http.StatusForbidden))
		})

		ginkgo.It("should return success for the host", func() {
			rec := do(http.MethodDelete, expensePath(exp.ID, ""), e.hostID, nil)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(rec.Body.String()).To(gomega.MatchJSON(`{"success":true}`))
		})
	})

	ginkgo.Describe("approve and pay", func() {
		var exp *expense.Expense

		ginkgo.BeforeEach(func() {
			exp = e.submit(e.member, e.g, 1000, payment.MethodManual)
		})

		ginkgo.It("should require authentication to approve", func() {
			rec := do(http.MethodPost, expensePath(exp.ID, "/approve"), 0, map[string]bool{"approved": true})
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		})

		ginkgo.It("should let a member approve but not pay", func() {
			rec := do(http.MethodPost, expensePath(exp.ID, "/approve"), e.memberID, map[string]bool{"approved": true})
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))

			var body map[string]interface{}
			gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(gomega.Succeed())
			gomega.Expect(body["status"]).To(gomega.Equal("APPROVED"))
			gomega.Expect(body["lastEditedById"]).To(gomega.BeNumerically("==", e.memberID))

			rec = do(http.MethodPost, expensePath(exp.ID, "/pay"), e.memberID, nil)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
		})

		ginkgo.It("should pay once and refuse the second attempt", func() {
			gomega.Expect(do(http.MethodPost, expensePath(exp.ID, "/approve"), e.hostID, map[string]bool{"approved": true}).Code).
				To(gomega.Equal(http.StatusOK))

			rec := do(http.MethodPost, expensePath(exp.ID, "/pay"), e.hostID, nil)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))

			var t map[string]interface{}
			gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &t)).To(gomega.Succeed())
			gomega.Expect(t["status"]).To(gomega.Equal("REIMBURSED"))
			gomega.Expect(t["ExpenseId"]).To(gomega.BeNumerically("==", exp.ID))

			rec = do(http.MethodPost, expensePath(exp.ID, "/pay"), e.hostID, nil)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
			gomega.Expect(errorOf(rec)["message"]).To(gomega.Equal(fmt.Sprintf("Expense %d status should be APPROVED.", exp.ID)))
			gomega.Expect(e.ledger()).To(gomega.HaveLen(1))
		})
	})
})
