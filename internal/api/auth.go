package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// loginRequest is the toy login body. The token is opaque and nothing
// checks it; the viewer page only uses login to gate its own UI.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleLogin checks the configured credential pair.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.config.AuthUser == "" {
		JSONError(w, NewNotFound("login is not configured"))
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, NewBadRequest("invalid login payload"))
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.config.AuthUser)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.config.AuthPassword)) == 1
	if !userOK || !passOK {
		JSONError(w, ErrUnauthorized)
		return
	}

	OK(w, map[string]any{
		"success": true,
		"token":   uuid.New().String(),
	})
}
