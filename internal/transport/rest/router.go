package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/group-expenses/api"
	"github.com/frahmantamala/group-expenses/internal/activity"
	"github.com/frahmantamala/group-expenses/internal/auth"
	"github.com/frahmantamala/group-expenses/internal/category"
	"github.com/frahmantamala/group-expenses/internal/core/metrics"
	"github.com/frahmantamala/group-expenses/internal/expense"
	"github.com/frahmantamala/group-expenses/internal/paymentmethod"
	"github.com/frahmantamala/group-expenses/internal/transaction"
	"github.com/frahmantamala/group-expenses/internal/transport/middleware"
	"github.com/frahmantamala/group-expenses/internal/transport/swagger"
	"github.com/frahmantamala/group-expenses/internal/user"
	"github.com/go-chi/chi"
)

// Handlers groups the HTTP handlers. A nil handler leaves its routes unregistered.
type Handlers struct {
	Health        *HealthHandler
	Auth          *auth.Handler
	User          *user.Handler
	Expense       *expense.Handler
	Transaction   *transaction.Handler
	Activity      *activity.Handler
	Category      *category.Handler
	PaymentMethod *paymentmethod.Handler
}

type Options struct {
	Identifier middleware.Identifier
	Groups     middleware.GroupResolver
	// MetricsPath mounts the Prometheus handler; empty disables it.
	MetricsPath string
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts Options, logger *slog.Logger) {
	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger, "/health", "/ping", opts.MetricsPath))

	if h.Health != nil {
		router.Get("/health", h.Health.HealthCheck)
		router.Get("/ping", h.Health.Ping)
	}

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.Document())
	})
	router.Handle("/swagger/*", swagger.Handler())

	if opts.MetricsPath != "" {
		router.Handle(opts.MetricsPath, metrics.Handler())
	}

	if h.Auth != nil {
		router.Post("/authenticate", h.Auth.Login)
		router.Post("/authenticate/refresh", h.Auth.RefreshToken)
	}

	// Everything below may carry a bearer token. Anonymous callers pass
	// through; the handlers and services decide what they may do.
	router.Group(func(r chi.Router) {
		r.Use(middleware.Identify(opts.Identifier, logger))

		r.Route("/groups/{id}", func(gr chi.Router) {
			gr.Use(middleware.GroupScope(opts.Groups, logger))

			if h.Expense != nil {
				gr.Route("/expenses", func(er chi.Router) {
					er.Post("/", h.Expense.CreateExpense)
					er.Get("/", h.Expense.ListExpenses)
					er.Get("/{eid}", h.Expense.GetExpense)
					er.Put("/{eid}", h.Expense.UpdateExpense)
					er.Delete("/{eid}", h.Expense.DeleteExpense)
					er.Post("/{eid}/approve", h.Expense.ApproveExpense)
					er.Post("/{eid}/pay", h.Expense.PayExpense)
				})
			}

			if h.Transaction != nil {
				gr.Post("/transactions", h.Transaction.CreateTransaction)
				gr.Get("/transactions", h.Transaction.ListTransactions)
			}

			if h.Activity != nil {
				gr.Get("/activities", h.Activity.ListActivities)
			}

			if h.Category != nil {
				gr.Get("/categories", h.Category.ListCategories)
			}
		})

		r.Route("/users/{userid}", func(ur chi.Router) {
			ur.Use(middleware.Authorize(logger))
			ur.Use(middleware.AuthorizeUser(logger))

			if h.User != nil {
				ur.Get("/", h.User.GetUser)
			}

			if h.PaymentMethod != nil {
				ur.Get("/paymentmethods", h.PaymentMethod.ListPaymentMethods)
				ur.Post("/paymentmethods", h.PaymentMethod.CreatePaymentMethod)
				ur.Post("/paymentmethods/{pmid}/confirm", h.PaymentMethod.ConfirmPaymentMethod)
			}
		})
	})
}
