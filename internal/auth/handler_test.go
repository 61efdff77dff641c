package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/group-expenses/internal"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

type stubAuthService struct {
	login   LoginDTO
	refresh RefreshTokenDTO
	err     error
}

func (s *stubAuthService) Authenticate(_ context.Context, dto LoginDTO) (AuthTokens, error) {
	s.login = dto
	if s.err != nil {
		return AuthTokens{}, s.err
	}
	return AuthTokens{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (s *stubAuthService) RefreshTokens(_ context.Context, dto RefreshTokenDTO) (AuthTokens, error) {
	s.refresh = dto
	if s.err != nil {
		return AuthTokens{}, s.err
	}
	return AuthTokens{AccessToken: "access-2", RefreshToken: "refresh-2"}, nil
}

var _ = ginkgo.Describe("Handler", func() {
	var (
		svc     *stubAuthService
		handler *Handler
	)

	ginkgo.BeforeEach(func() {
		svc = &stubAuthService{}
		handler = NewHandler(svc)
	})

	post := func(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodPost, "/authenticate", strings.NewReader(body)))
		return rec
	}

	ginkgo.It("should issue uncacheable tokens on login", func() {
		rec := post(handler.Login, `{"email":"host@example.com","password":"secret"}`)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(svc.login.Email).To(gomega.Equal("host@example.com"))
		gomega.Expect(rec.Header().Get("Cache-Control")).To(gomega.Equal("no-store"))
		gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring(`"access_token":"access"`))
	})

	ginkgo.It("should pass both tokens through on refresh", func() {
		rec := post(handler.RefreshToken, `{"access_token":"old","refresh_token":"r1"}`)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(svc.refresh).To(gomega.Equal(RefreshTokenDTO{AccessToken: "old", RefreshToken: "r1"}))
	})

	ginkgo.It("should answer 401 for bad credentials", func() {
		svc.err = internal.ErrInvalidCredentials
		rec := post(handler.Login, `{"email":"host@example.com","password":"nope"}`)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		gomega.Expect(rec.Header().Get("Cache-Control")).To(gomega.BeEmpty())
	})

	ginkgo.It("should reject a malformed body before reaching the service", func() {
		rec := post(handler.Login, `{"email":`)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
		gomega.Expect(svc.login).To(gomega.Equal(LoginDTO{}))
	})
})
