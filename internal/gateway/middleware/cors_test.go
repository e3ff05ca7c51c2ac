package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })

	tests := []struct {
		name       string
		allowed    []string
		method     string
		origin     string
		wantStatus int
		wantOrigin string
	}{
		{"no origin", nil, http.MethodPost, "", http.StatusTeapot, "*"},
		{"echo any", nil, http.MethodPost, "http://a.test", http.StatusTeapot, "http://a.test"},
		{"preflight", nil, http.MethodOptions, "http://a.test", http.StatusNoContent, "http://a.test"},
		{"allowed", []string{"http://a.test"}, http.MethodPost, "http://a.test", http.StatusTeapot, "http://a.test"},
		{"rejected preflight", []string{"http://a.test"}, http.MethodOptions, "http://b.test", http.StatusForbidden, ""},
		{"rejected request", []string{"http://a.test"}, http.MethodPost, "http://b.test", http.StatusTeapot, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			CORS(tt.allowed...)(ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
