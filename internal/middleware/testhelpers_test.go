package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/quill/internal/auth"
)

// mockVerifier はTokenVerifierのテスト用実装。
type mockVerifier struct {
	verifyFn func(token string) (*auth.Claims, error)
}

func (m *mockVerifier) Verify(token string) (*auth.Claims, error) {
	if m.verifyFn != nil {
		return m.verifyFn(token)
	}
	return nil, errors.New("not configured")
}

// acceptToken は指定トークンのみを受け入れるVerifierを返す。
func acceptToken(valid string, claims *auth.Claims) *mockVerifier {
	return &mockVerifier{
		verifyFn: func(token string) (*auth.Claims, error) {
			if token == valid {
				return claims, nil
			}
			return nil, auth.ErrInvalidToken
		},
	}
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) ErrorResponseBody {
	t.Helper()
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}
