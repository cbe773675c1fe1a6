package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewClient(server.URL, time.Second, time.Second, logger)
}

func ip(value string) *string {
	return &value
}

func TestLoginDecodesOutcomes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want LoginOutcome
	}{
		{
			name: "registration",
			body: `{"msg":"code_not_registered","qr_code_url":"https://qr.example/a.png","secret":"JBSWY3DPEHPK3PXP"}`,
			want: NeedsRegistration{QRCodeURL: "https://qr.example/a.png", Secret: "JBSWY3DPEHPK3PXP"},
		},
		{
			name: "verification",
			body: `{"msg":"login_not_passed"}`,
			want: NeedsVerification{},
		},
		{
			name: "authenticated",
			body: `{"access_token":"tok","token_type":"bearer","expires_in":3600}`,
			want: Authenticated{Token: Token{AccessToken: "tok", TokenType: "bearer", ExpiresIn: 3600}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/auth/login", r.URL.Path)
				assert.Equal(t, "203.0.113.9", r.Header.Get(HeaderClientIP))

				var body loginRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "ops@example.com", body.Email)
				assert.Equal(t, "hunter22", body.Password)

				_, _ = io.WriteString(w, tt.body)
			})

			outcome, err := client.Login(context.Background(), "ops@example.com", "hunter22", ip("203.0.113.9"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, outcome)
		})
	}
}

func TestLoginUnknownShapeIsUnexpected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"msg":"something_else"}`)
	})

	_, err := client.Login(context.Background(), "ops@example.com", "pw", nil)
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
}

func TestLoginRejectedCarriesFieldErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"message":"The given data was invalid.","errors":{"email":["These credentials do not match our records."],"password":"Wrong password."}}`)
	})

	_, err := client.Login(context.Background(), "ops@example.com", "pw", nil)
	require.Error(t, err)
	assert.True(t, IsUnprocessable(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "These credentials do not match our records.", apiErr.FieldMessage("email"))
	assert.Equal(t, "Wrong password.", apiErr.FieldMessage("password"))
	assert.Equal(t, "The given data was invalid.", apiErr.Message)
}

func TestLoginTimeoutIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)
	client.LoginTimeout = 50 * time.Millisecond

	_, err := client.Login(context.Background(), "ops@example.com", "pw", nil)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.True(t, IsTimeout(err))
}

func TestVerifyTwoFactorSendsCredentials(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/2fa/verify", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"2fa_code": "123456", "email": "ops@example.com", "password": "pw"}, body)
		_, _ = io.WriteString(w, `{"access_token":"tok","token_type":"bearer","expires_in":60}`)
	})

	token, err := client.VerifyTwoFactor(context.Background(), "123456", "ops@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok", token.AccessToken)
}

func TestVerifyTwoFactorWithoutTokenSurfacesMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"message":"Invalid code"}`)
	})

	_, err := client.VerifyTwoFactor(context.Background(), "000000", "ops@example.com", "pw")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid code", apiErr.Message)
}

func TestLogoutSendsBearerAndClientIP(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "198.51.100.7", r.Header.Get(HeaderClientIP))
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"Unauthenticated."}`)
	})

	err := client.Logout(context.Background(), Token{AccessToken: "tok", TokenType: "bearer"}, ip("198.51.100.7"))
	assert.True(t, IsUnauthorized(err))
}

func TestListPassesQueryAndDecodesPaginator(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users", r.URL.Path)
		assert.Equal(t, "admin,suporte", r.URL.Query().Get("role"))
		assert.Equal(t, "3", r.URL.Query().Get("page"))
		_, _ = io.WriteString(w, `{"current_page":3,"last_page":3,"total":41,"per_page":20,"next_page_url":null,"prev_page_url":"https://api/users?page=2","data":[{"id":1},{"id":2}]}`)
	})

	page, err := client.List(context.Background(), Token{AccessToken: "tok"}, "users", url.Values{"role": {"admin,suporte"}, "page": {"3"}})
	require.NoError(t, err)
	assert.Equal(t, 3, page.CurrentPage)
	assert.Nil(t, page.NextPageURL)
	require.NotNil(t, page.PrevPageURL)
	assert.Len(t, page.Data, 2)
}

func TestTokenAuthorization(t *testing.T) {
	assert.Equal(t, "Bearer abc", Token{AccessToken: "abc"}.Authorization())
	assert.Equal(t, "Bearer abc", Token{AccessToken: "abc", TokenType: "bearer"}.Authorization())
	assert.Equal(t, "Token abc", Token{AccessToken: "abc", TokenType: "Token"}.Authorization())
}
