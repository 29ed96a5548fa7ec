package llm

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// fakeAPI serves body with status on every path and returns the base URL.
// The last decoded request body is stored in seen when non-nil.
func fakeAPI(t *testing.T, status int, body any, seen *map[string]any) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			json.NewDecoder(r.Body).Decode(seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func rolePlay() []Message {
	return []Message{
		{Role: RoleAssistant, Content: "ಎಲ್ಲಿಗೆ ಹೋಗಬೇಕು?"},
		{Role: RoleUser, Content: "Indiranagar, meter haaki"},
	}
}
