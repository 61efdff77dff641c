package expense_test

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/frahmantamala/group-expenses/internal"
	"github.com/frahmantamala/group-expenses/internal/activity"
	"github.com/frahmantamala/group-expenses/internal/expense"
	"github.com/frahmantamala/group-expenses/internal/pagination"
	"github.com/frahmantamala/group-expenses/internal/payment"
	"github.com/frahmantamala/group-expenses/internal/paymentgateway"
	"github.com/frahmantamala/group-expenses/internal/transaction"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

func strPtr(s string) *string { return &s }
func int64Ptr(n int64) *int64 { return &n }
func boolPtr(b bool) *bool    { return &b }

var _ = ginkgo.Describe("ExpenseService", func() {
	var (
		ctx context.Context
		e   *env
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		e = newEnv()
	})

	ginkgo.AfterEach(func() {
		e.close()
	})

	ginkgo.Describe("Create", func() {
		ginkgo.It("should submit a pending expense for the authenticated member", func() {
			exp := e.submit(e.member, e.g, 2500, payment.MethodManual)

			gomega.Expect(exp.ID).To(gomega.BeNumerically(">", 0))
			gomega.Expect(exp.Status).To(gomega.Equal(expense.StatusPending))
			gomega.Expect(exp.GroupID).To(gomega.Equal(e.g.ID))
			gomega.Expect(exp.UserID).To(gomega.HaveValue(gomega.Equal(e.memberID)))
			gomega.Expect(e.activityTypes()).To(gomega.Equal([]string{activity.TypeExpenseCreated}))
		})

		ginkgo.It("should accept anonymous submissions without a submitter", func() {
			exp := e.submit(e.anonymous, e.g, 2500, payment.MethodOther)
			gomega.Expect(exp.UserID).To(gomega.BeNil())
		})

		ginkgo.It("should require the expense object", func() {
			_, err := e.service.Create(ctx, e.member, e.g, expense.ExpenseRequest{})
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeMissingRequired))
			gomega.Expect(appErr.Fields()).To(gomega.HaveKey("expense"))
		})

		ginkgo.It("should reject a negative amount with the min message", func() {
			_, err := e.service.Create(ctx, e.member, e.g, expense.ExpenseRequest{Expense: &expense.ExpenseDTO{
				Title:        strPtr("Taxi"),
				Amount:       int64Ptr(-10),
				Currency:     strPtr("USD"),
				PayoutMethod: strPtr("manual"),
			}})
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeValidation))
			gomega.Expect(appErr.Message).To(gomega.Equal("Validation error: Validation min failed"))
		})

		ginkgo.It("should report every offending field at once", func() {
			_, err := e.service.Create(ctx, e.member, e.g, expense.ExpenseRequest{Expense: &expense.ExpenseDTO{
				Amount:       int64Ptr(0),
				Currency:     strPtr("USD"),
				PayoutMethod: strPtr("bitcoin"),
			}})
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Fields()).To(gomega.ConsistOf("title", "amount", "payoutMethod"))
			gomega.Expect(appErr.Message).To(gomega.ContainSubstring("Must be paypal, manual or other"))
			gomega.Expect(e.activityTypes()).To(gomega.BeEmpty())
		})

		ginkgo.It("should reject currencies without an exchange rate", func() {
			_, err := e.service.Create(ctx, e.member, e.g, expense.ExpenseRequest{Expense: &expense.ExpenseDTO{
				Title:        strPtr("Train"),
				Amount:       int64Ptr(5000),
				Currency:     strPtr("GBP"),
				PayoutMethod: strPtr("paypal"),
			}})
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeValidation))
			gomega.Expect(appErr.Fields()).To(gomega.ConsistOf("currency"))
			gomega.Expect(appErr.Message).To(gomega.ContainSubstring("Unsupported currency GBP"))
		})
	})

	ginkgo.Describe("Get", func() {
		ginkgo.It("should hide expenses of other groups", func() {
			foreign := e.submit(e.outsider, e.other, 1000, payment.MethodManual)
			_, err := e.service.Get(ctx, e.g, foreign.ID)
			gomega.Expect(err).To(gomega.MatchError(expense.ErrExpenseNotFound))
		})
	})

	ginkgo.Describe("List", func() {
		ginkgo.It("should page through the group's expenses in id order", func() {
			for i := 0; i < 3; i++ {
				e.submit(e.member, e.g, 100, payment.MethodManual)
			}
			e.submit(e.outsider, e.other, 100, payment.MethodManual)

			page, total, err := e.service.List(ctx, e.g, pagination.Params{Page: 2, PerPage: 2})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(total).To(gomega.Equal(int64(3)))
			gomega.Expect(page).To(gomega.HaveLen(1))
		})
	})

	ginkgo.Describe("Update", func() {
		var exp *expense.Expense

		ginkgo.BeforeEach(func() {
			exp = e.submit(e.member, e.g, 2500, payment.MethodManual)
		})

		ginkgo.It("should patch only the given fields", func() {
			updated, err := e.service.Update(ctx, e.host, e.g, exp.ID, expense.ExpenseRequest{Expense: &expense.ExpenseDTO{
				Title: strPtr("new title"),
			}})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(updated.Title).To(gomega.Equal("new title"))
			gomega.Expect(updated.Category).To(gomega.Equal("Food"))
			gomega.Expect(updated.Amount).To(gomega.Equal(int64(2500)))
			gomega.Expect(updated.LastEditedByID).To(gomega.HaveValue(gomega.Equal(e.hostID)))
			gomega.Expect(e.activityTypes()).To(gomega.ContainElement(activity.TypeExpenseUpdated))
		})

		ginkgo.It("should apply the create rules to the merged expense", func() {
			_, err := e.service.Update(ctx, e.host, e.g, exp.ID, expense.ExpenseRequest{Expense: &expense.ExpenseDTO{
				PayoutMethod: strPtr("cash"),
			}})
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Fields()).To(gomega.ConsistOf("payoutMethod"))
		})

		ginkgo.It("should reject a currency without an exchange rate", func() {
			_, err := e.service.Update(ctx, e.host, e.g, exp.ID, expense.ExpenseRequest{Expense: &expense.ExpenseDTO{
				Currency: strPtr("GBP"),
			}})
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Fields()).To(gomega.ConsistOf("currency"))

			current, err := e.service.Get(ctx, e.g, exp.ID)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(current.Currency).To(gomega.Equal("USD"))
		})

		ginkgo.Context("when the expense is approved", func() {
			ginkgo.BeforeEach(func() {
				e.db.MustCreatePaymentMethod(e.hostID, "paypal", "PA-host", true)
				e.db.MustCreatePaymentMethod(e.memberID, "paypal", "member@example.com", true)
				exp = e.submit(e.member, e.g, 5000, payment.MethodPaypal)
				e.approve(exp.ID)
			})

			ginkgo.It("should send it back to review when the amount grows", func() {
				updated, err := e.service.Update(ctx, e.host, e.g, exp.ID, expense.ExpenseRequest{Expense: &expense.ExpenseDTO{
					Amount: int64Ptr(900000),
				}})
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
				gomega.Expect(updated.Status).To(gomega.Equal(expense.StatusPending))

				_, err = e.service.Pay(ctx, e.host, e.g, exp.ID)
				gomega.Expect(err).To(gomega.MatchError(expense.ErrStatusShouldBe(exp.ID, expense.StatusApproved)))
				gomega.Expect(e.gateway.payCalls).To(gomega.BeEmpty())
				gomega.Expect(e.ledger()).To(gomega.BeEmpty())
			})

			ginkgo.It("should re-check the funds when it is approved again", func() {
				_, err := e.service.Update(ctx, e.host, e.g, exp.ID, expense.ExpenseRequest{Expense: &expense.ExpenseDTO{
					Amount: int64Ptr(900000),
				}})
				gomega.Expect(err).NotTo(gomega.HaveOccurred())

				_, err = e.service.Approve(ctx, e.host, e.g, exp.ID, expense.ApproveRequest{Approved: boolPtr(true)})
				gomega.Expect(err).To(gomega.MatchError(gomega.ContainSubstring("Not enough funds (100 USD left) to approve transaction.")))
			})

			ginkgo.It("should send it back to review when the payout method changes", func() {
				updated, err := e.service.Update(ctx, e.host, e.g, exp.ID, expense.ExpenseRequest{Expense: &expense.ExpenseDTO{
					PayoutMethod: strPtr("manual"),
				}})
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
				gomega.Expect(updated.Status).To(gomega.Equal(expense.StatusPending))
			})

			ginkgo.It("should stay approved when only the wording changes", func() {
				updated, err := e.service.Update(ctx, e.host, e.g, exp.ID, expense.ExpenseRequest{Expense: &expense.ExpenseDTO{
					Title:  strPtr("Dinner with the team"),
					Amount: int64Ptr(5000),
				}})
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
				gomega.Expect(updated.Status).To(gomega.Equal(expense.StatusApproved))
			})
		})

		ginkgo.It("should check the caller before the expense", func() {
			_, err := e.service.Update(ctx, e.anonymous, e.g, exp.ID, expense.ExpenseRequest{})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrUnauthorized))
		})

		ginkgo.It("should return not found for an expense of another group", func() {
			foreign := e.submit(e.outsider, e.other, 1000, payment.MethodManual)
			_, err := e.service.Update(ctx, e.host, e.g, foreign.ID, expense.ExpenseRequest{Expense: &expense.ExpenseDTO{Title: strPtr("x")}})
			gomega.Expect(err).To(gomega.MatchError(expense.ErrExpenseNotFound))

			untouched, err := e.service.Get(ctx, e.other, foreign.ID)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(untouched.Title).To(gomega.Equal("Dinner"))
		})

		ginkgo.It("should forbid members", func() {
			_, err := e.service.Update(ctx, e.member, e.g, exp.ID, expense.ExpenseRequest{Expense: &expense.ExpenseDTO{Title: strPtr("x")}})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrForbidden))
		})

		ginkgo.It("should require the expense object", func() {
			_, err := e.service.Update(ctx, e.host, e.g, exp.ID, expense.ExpenseRequest{})
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeMissingRequired))
		})

		ginkgo.It("should freeze paid expenses", func() {
			e.approve(exp.ID)
			_, err := e.service.Pay(ctx, e.host, e.g, exp.ID)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			_, err = e.service.Update(ctx, e.host, e.g, exp.ID, expense.ExpenseRequest{Expense: &expense.ExpenseDTO{Title: strPtr("x")}})
			gomega.Expect(err).To(gomega.MatchError(expense.ErrExpensePaid))
		})
	})

	ginkgo.Describe("Delete", func() {
		var exp *expense.Expense

		ginkgo.BeforeEach(func() {
			exp = e.submit(e.member, e.g, 2500, payment.MethodManual)
		})

		ginkgo.It("should remove the expense and keep its activity trail", func() {
			gomega.Expect(e.service.Delete(ctx, e.host, e.g, exp.ID)).To(gomega.Succeed())

			_, err := e.service.Get(ctx, e.g, exp.ID)
			gomega.Expect(err).To(gomega.MatchError(expense.ErrExpenseNotFound))
			gomega.Expect(e.activityTypes()).To(gomega.Equal([]string{
				activity.TypeExpenseCreated,
				activity.TypeExpenseDeleted,
			}))
		})

		ginkgo.It("should allow deleting a rejected expense", func() {
			_, err := e.service.Approve(ctx, e.host, e.g, exp.ID, expense.ApproveRequest{Approved: boolPtr(false)})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(e.service.Delete(ctx, e.host, e.g, exp.ID)).To(gomega.Succeed())
		})

		ginkgo.It("should reject anonymous callers", func() {
			gomega.Expect(e.service.Delete(ctx, e.anonymous, e.g, exp.ID)).To(gomega.MatchError(internal.ErrUnauthorized))
		})

		ginkgo.It("should return not found for a missing expense", func() {
			gomega.Expect(e.service.Delete(ctx, e.host, e.g, 9999)).To(gomega.MatchError(expense.ErrExpenseNotFound))
		})

		ginkgo.It("should forbid deleting an expense of another group", func() {
			foreign := e.submit(e.outsider, e.other, 1000, payment.MethodManual)
			gomega.Expect(e.service.Delete(ctx, e.host, e.g, foreign.ID)).To(gomega.MatchError(internal.ErrForbidden))

			_, err := e.service.Get(ctx, e.other, foreign.ID)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
		})

		ginkgo.It("should forbid members", func() {
			gomega.Expect(e.service.Delete(ctx, e.member, e.g, exp.ID)).To(gomega.MatchError(internal.ErrForbidden))
		})

		ginkgo.It("should refuse to delete a paid expense", func() {
			e.approve(exp.ID)
			_, err := e.service.Pay(ctx, e.host, e.g, exp.ID)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			gomega.Expect(e.service.Delete(ctx, e.host, e.g, exp.ID)).To(gomega.MatchError(expense.ErrExpensePaid))
		})
	})

	ginkgo.Describe("Approve", func() {
		ginkgo.It("should let a member reject", func() {
			exp := e.submit(e.member, e.g, 2500, payment.MethodPaypal)

			rejected, err := e.service.Approve(ctx, e.member, e.g, exp.ID, expense.ApproveRequest{Approved: boolPtr(false)})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(rejected.Status).To(gomega.Equal(expense.StatusRejected))
			gomega.Expect(rejected.LastEditedByID).To(gomega.HaveValue(gomega.Equal(e.memberID)))
			gomega.Expect(e.gateway.detailCalls).To(gomega.Equal(0))
			gomega.Expect(e.activityTypes()).To(gomega.ContainElement(activity.TypeExpenseRejected))
		})

		ginkgo.It("should require the approved flag", func() {
			exp := e.submit(e.member, e.g, 2500, payment.MethodManual)
			_, err := e.service.Approve(ctx, e.host, e.g, exp.ID, expense.ApproveRequest{})
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Fields()).To(gomega.HaveKey("approved"))
		})

		ginkgo.It("should forbid callers outside the group", func() {
			exp := e.submit(e.member, e.g, 2500, payment.MethodManual)
			stranger := e.outsider
			stranger.GroupID = e.g.ID
			stranger.Role = ""

			_, err := e.service.Approve(ctx, stranger, e.g, exp.ID, expense.ApproveRequest{Approved: boolPtr(true)})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrForbidden))
		})

		ginkgo.It("should only review pending expenses", func() {
			exp := e.submit(e.member, e.g, 2500, payment.MethodManual)
			e.approve(exp.ID)

			_, err := e.service.Approve(ctx, e.host, e.g, exp.ID, expense.ApproveRequest{Approved: boolPtr(false)})
			gomega.Expect(err).To(gomega.MatchError(expense.ErrStatusShouldBe(exp.ID, expense.StatusPending)))
		})

		ginkgo.It("should approve manual expenses without asking the gateway", func() {
			exp := e.submit(e.member, e.g, 2500, payment.MethodManual)
			gomega.Expect(e.approve(exp.ID).Status).To(gomega.Equal(expense.StatusApproved))
			gomega.Expect(e.gateway.detailCalls).To(gomega.Equal(0))
		})

		ginkgo.Context("with a paypal expense and a host preapproval", func() {
			var exp *expense.Expense

			ginkgo.BeforeEach(func() {
				e.db.MustCreatePaymentMethod(e.hostID, "paypal", "PA-host", true)
				exp = e.submit(e.member, e.g, 2000, payment.MethodPaypal)
			})

			ginkgo.It("should fail with the remaining funds and leave the status", func() {
				e.gateway.remaining = "15.50"

				_, err := e.service.Approve(ctx, e.member, e.g, exp.ID, expense.ApproveRequest{Approved: boolPtr(true)})
				gomega.Expect(err).To(gomega.MatchError(gomega.ContainSubstring("Not enough funds (15.5 USD left) to approve transaction.")))

				current, err := e.service.Get(ctx, e.g, exp.ID)
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
				gomega.Expect(current.Status).To(gomega.Equal(expense.StatusPending))
				gomega.Expect(e.activityTypes()).NotTo(gomega.ContainElement(activity.TypeExpenseApproved))
			})

			ginkgo.It("should approve when the preapproval covers the amount", func() {
				e.gateway.remaining = "20.00"

				approved, err := e.service.Approve(ctx, e.member, e.g, exp.ID, expense.ApproveRequest{Approved: boolPtr(true)})
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
				gomega.Expect(approved.Status).To(gomega.Equal(expense.StatusApproved))
				gomega.Expect(e.gateway.detailCalls).To(gomega.Equal(1))
			})
		})
	})

	ginkgo.Describe("Pay", func() {
		ginkgo.It("should require an approved expense", func() {
			exp := e.submit(e.member, e.g, 2500, payment.MethodManual)

			_, err := e.service.Pay(ctx, e.host, e.g, exp.ID)
			gomega.Expect(err).To(gomega.MatchError(expense.ErrStatusShouldBe(exp.ID, expense.StatusApproved)))
			gomega.Expect(err.Error()).To(gomega.ContainSubstring("status should be APPROVED."))
		})

		ginkgo.It("should forbid members", func() {
			exp := e.submit(e.member, e.g, 2500, payment.MethodManual)
			e.approve(exp.ID)

			_, err := e.service.Pay(ctx, e.member, e.g, exp.ID)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrForbidden))
		})

		ginkgo.It("should reject anonymous callers", func() {
			exp := e.submit(e.member, e.g, 2500, payment.MethodManual)
			e.approve(exp.ID)

			_, err := e.service.Pay(ctx, e.anonymous, e.g, exp.ID)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrUnauthorized))
		})

		ginkgo.Context("a manual expense", func() {
			var exp *expense.Expense

			ginkgo.BeforeEach(func() {
				exp = e.submit(e.member, e.g, 1234, payment.MethodManual)
				e.approve(exp.ID)
			})

			ginkgo.It("should record a reimbursement without calling the gateway", func() {
				t, err := e.service.Pay(ctx, e.host, e.g, exp.ID)
				gomega.Expect(err).NotTo(gomega.HaveOccurred())

				gomega.Expect(t.Amount.Equal(decimal.New(-1234, -2))).To(gomega.BeTrue())
				gomega.Expect(t.Currency).To(gomega.Equal("USD"))
				gomega.Expect(t.NetAmountInGroupCurrency).To(gomega.Equal(int64(-1234)))
				gomega.Expect(t.Status).To(gomega.Equal(transaction.StatusReimbursed))
				gomega.Expect(t.Description).To(gomega.Equal("Dinner"))
				gomega.Expect(t.UserID).To(gomega.HaveValue(gomega.Equal(e.memberID)))
				gomega.Expect(t.ExpenseID).To(gomega.HaveValue(gomega.Equal(exp.ID)))
				gomega.Expect(t.PaymentMethodID).To(gomega.BeNil())
				gomega.Expect(e.gateway.payCalls).To(gomega.BeEmpty())

				paid, err := e.service.Get(ctx, e.g, exp.ID)
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
				gomega.Expect(paid.Status).To(gomega.Equal(expense.StatusPaid))
				gomega.Expect(e.activityTypes()).To(gomega.ContainElement(activity.TypeTransactionPaid))
			})

			ginkgo.It("should pay only once", func() {
				_, err := e.service.Pay(ctx, e.host, e.g, exp.ID)
				gomega.Expect(err).NotTo(gomega.HaveOccurred())

				_, err = e.service.Pay(ctx, e.host, e.g, exp.ID)
				gomega.Expect(err).To(gomega.MatchError(expense.ErrStatusShouldBe(exp.ID, expense.StatusApproved)))
				gomega.Expect(e.ledger()).To(gomega.HaveLen(1))
			})
		})

		ginkgo.It("should convert foreign expenses into the group currency", func() {
			amount, cur, method, title := int64(1000), "EUR", "manual", "Museum"
			exp, err := e.service.Create(ctx, e.member, e.g, expense.ExpenseRequest{Expense: &expense.ExpenseDTO{
				Title: &title, Amount: &amount, Currency: &cur, PayoutMethod: &method,
			}})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			e.approve(exp.ID)

			t, err := e.service.Pay(ctx, e.host, e.g, exp.ID)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(t.Currency).To(gomega.Equal("EUR"))
			gomega.Expect(t.Amount.Equal(decimal.New(-10, 0))).To(gomega.BeTrue())
			gomega.Expect(t.NetAmountInGroupCurrency).To(gomega.Equal(int64(-2000)))
		})

		ginkgo.Context("a paypal expense", func() {
			var exp *expense.Expense

			ginkgo.BeforeEach(func() {
				e.db.MustCreatePaymentMethod(e.hostID, "paypal", "PA-host", true)
				exp = e.submit(e.member, e.g, 2000, payment.MethodPaypal)
				e.approve(exp.ID)
			})

			ginkgo.It("should fail when the payee has no confirmed paypal method", func() {
				e.db.MustCreatePaymentMethod(e.memberID, "paypal", "member@example.com", false)

				_, err := e.service.Pay(ctx, e.host, e.g, exp.ID)
				gomega.Expect(err).To(gomega.MatchError(payment.ErrNoPayeeMethod))

				current, err := e.service.Get(ctx, e.g, exp.ID)
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
				gomega.Expect(current.Status).To(gomega.Equal(expense.StatusApproved))
				gomega.Expect(e.ledger()).To(gomega.BeEmpty())
			})

			ginkgo.Context("when the payee has a confirmed method", func() {
				var payeeMethodID int64

				ginkgo.BeforeEach(func() {
					payeeMethodID = e.db.MustCreatePaymentMethod(e.memberID, "paypal", "member@example.com", true).ID
				})

				ginkgo.It("should not call paypal for an amount the ledger cannot book", func() {
					// rows written before the currency check existed
					gomega.Expect(e.db.Gorm.Exec("UPDATE expenses SET currency = ? WHERE id = ?", "GBP", exp.ID).Error).To(gomega.Succeed())

					for i := 0; i < 2; i++ {
						_, err := e.service.Pay(ctx, e.host, e.g, exp.ID)
						appErr, ok := internal.IsAppError(err)
						gomega.Expect(ok).To(gomega.BeTrue())
						gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeBadRequest))
					}

					gomega.Expect(e.gateway.payCalls).To(gomega.BeEmpty())
					gomega.Expect(e.ledger()).To(gomega.BeEmpty())
					current, err := e.service.Get(ctx, e.g, exp.ID)
					gomega.Expect(err).NotTo(gomega.HaveOccurred())
					gomega.Expect(current.Status).To(gomega.Equal(expense.StatusApproved))
				})

				ginkgo.It("should pay through paypal and keep the gateway response", func() {
					t, err := e.service.Pay(ctx, e.host, e.g, exp.ID)
					gomega.Expect(err).NotTo(gomega.HaveOccurred())
					gomega.Expect(t.PaymentMethodID).To(gomega.HaveValue(gomega.Equal(payeeMethodID)))

					gomega.Expect(e.gateway.payCalls).To(gomega.HaveLen(1))
					req := e.gateway.payCalls[0]
					gomega.Expect(req.ReceiverEmail).To(gomega.Equal("member@example.com"))
					gomega.Expect(req.Amount).To(gomega.Equal("20.00"))
					gomega.Expect(req.PreapprovalKey).To(gomega.Equal("PA-host"))

					list, _, err := e.activities.ListByGroup(ctx, e.g.ID, pagination.Params{Page: 1, PerPage: 100})
					gomega.Expect(err).NotTo(gomega.HaveOccurred())
					paid := list[len(list)-1]
					gomega.Expect(paid.Type).To(gomega.Equal(activity.TypeTransactionPaid))
					gomega.Expect(paid.UserID).To(gomega.HaveValue(gomega.Equal(e.hostID)))
					gomega.Expect(paid.TransactionID).To(gomega.HaveValue(gomega.Equal(t.ID)))

					var data map[string]json.RawMessage
					gomega.Expect(json.Unmarshal(paid.Data, &data)).To(gomega.Succeed())
					gomega.Expect(data).To(gomega.HaveKey("transaction"))
					gomega.Expect(string(data["paymentResponse"])).To(gomega.ContainSubstring("AP-7XY"))
				})

				ginkgo.It("should roll everything back when paypal rejects the payment", func() {
					e.gateway.payErr = &paymentgateway.Error{Operation: paymentgateway.OperationPay, ErrorID: "579024", Message: "The preapproval key has expired"}

					_, err := e.service.Pay(ctx, e.host, e.g, exp.ID)
					appErr, ok := internal.IsAppError(err)
					gomega.Expect(ok).To(gomega.BeTrue())
					gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeBadRequest))
					gomega.Expect(appErr.Message).To(gomega.Equal("The preapproval key has expired"))

					current, err := e.service.Get(ctx, e.g, exp.ID)
					gomega.Expect(err).NotTo(gomega.HaveOccurred())
					gomega.Expect(current.Status).To(gomega.Equal(expense.StatusApproved))
					gomega.Expect(e.ledger()).To(gomega.BeEmpty())
					gomega.Expect(e.activityTypes()).NotTo(gomega.ContainElement(activity.TypeTransactionPaid))
				})

				ginkgo.It("should surface transport failures as server errors", func() {
					e.gateway.payErr = errors.New("connection reset by peer")

					_, err := e.service.Pay(ctx, e.host, e.g, exp.ID)
					appErr, ok := internal.IsAppError(err)
					gomega.Expect(ok).To(gomega.BeTrue())
					gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeInternal))
					gomega.Expect(e.ledger()).To(gomega.BeEmpty())
				})
			})
		})
	})
})
