package user_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/frahmantamala/group-expenses/internal/user"
	"github.com/go-chi/chi"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

func TestUser(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "User Suite")
}

type memoryUsers map[int64]*user.User

func (m memoryUsers) GetByID(_ context.Context, id int64) (*user.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, user.ErrUserNotFound
}

func (m memoryUsers) GetByEmail(context.Context, string) (*user.User, error) {
	return nil, user.ErrUserNotFound
}

func (m memoryUsers) Create(context.Context, *user.User) error { return nil }

func (m memoryUsers) UpdateRefreshTokenHash(context.Context, int64, string) error { return nil }

var _ = ginkgo.Describe("GetUser", func() {
	var router *chi.Mux

	ginkgo.BeforeEach(func() {
		hash := "refresh-hash"
		users := memoryUsers{
			4: {ID: 4, Email: "member@example.com", Name: "Member", PasswordHash: "secret-hash", RefreshTokenHash: &hash, Access: 1},
		}
		router = chi.NewRouter()
		router.Get("/users/{userid}", user.NewHandler(user.NewService(users)).GetUser)
	})

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	ginkgo.It("should return the public profile only", func() {
		rec := get("/users/4")

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring(`"email":"member@example.com"`))
		gomega.Expect(rec.Body.String()).NotTo(gomega.ContainSubstring("secret-hash"))
		gomega.Expect(rec.Body.String()).NotTo(gomega.ContainSubstring("refresh-hash"))
		gomega.Expect(rec.Body.String()).NotTo(gomega.ContainSubstring("access"))
	})

	ginkgo.It("should answer 404 for unknown and non-numeric ids", func() {
		gomega.Expect(get("/users/99").Code).To(gomega.Equal(http.StatusNotFound))
		gomega.Expect(get("/users/abc").Code).To(gomega.Equal(http.StatusNotFound))
	})
})
