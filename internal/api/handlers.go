package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/mroshb/moodgram/internal/models"
	"github.com/mroshb/moodgram/internal/relationship"
	"github.com/mroshb/moodgram/internal/security"
	"github.com/mroshb/moodgram/internal/services"
	"github.com/mroshb/moodgram/pkg/errors"
)

type Handler struct {
	users     *services.UserService
	social    *services.SocialService
	jwtSecret string
	tokenTTL  time.Duration
}

func NewHandler(users *services.UserService, social *services.SocialService, jwtSecret string, tokenTTL time.Duration) *Handler {
	return &Handler{
		users:     users,
		social:    social,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, "invalid request payload")
	}
	return nil
}

func limitParam(r *http.Request) int {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return limit
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type registerRequest struct {
	Username        string `json:"username"`
	DisplayName     string `json:"display_name"`
	IsAccountPublic bool   `json:"is_account_public"`
}

type registerResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Register creates a user and returns it with a fresh token
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.users.Register(r.Context(), services.RegisterInput{
		Username:        req.Username,
		DisplayName:     req.DisplayName,
		IsAccountPublic: req.IsAccountPublic,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, err := security.GenerateJWT(user.ID, h.jwtSecret, h.tokenTTL)
	if err != nil {
		writeError(w, r, errors.Wrap(err, errors.ErrCodeInternalError, "failed to issue token"))
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{User: user, Token: token})
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), UserIDFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type privacyRequest struct {
	IsAccountPublic *bool `json:"is_account_public"`
}

func (h *Handler) SetPrivacy(w http.ResponseWriter, r *http.Request) {
	var req privacyRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.IsAccountPublic == nil {
		writeError(w, r, errors.New(errors.ErrCodeValidation, "is_account_public is required"))
		return
	}

	userID := UserIDFrom(r.Context())
	if err := h.users.SetAccountPublic(r.Context(), userID, *req.IsAccountPublic); err != nil {
		writeError(w, r, err)
		return
	}
	h.Me(w, r)
}

type actionRequest struct {
	Action string `json:"action"`
}

type actionResponse struct {
	Applied bool                      `json:"applied"`
	Status  models.RelationshipStatus `json:"status"`
}

// Act applies follow, unfollow, block, unblock, approve or ignore from the
// caller towards {targetID}.
func (h *Handler) Act(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	action, err := relationship.ParseAction(req.Action)
	if err != nil {
		writeError(w, r, err)
		return
	}

	outcome, err := h.social.Act(r.Context(), UserIDFrom(r.Context()), mux.Vars(r)["targetID"], action)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{Applied: outcome.Applied, Status: outcome.Status})
}

func (h *Handler) GetRelationship(w http.ResponseWriter, r *http.Request) {
	view, err := h.social.Between(r.Context(), UserIDFrom(r.Context()), mux.Vars(r)["targetID"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) PendingRequests(w http.ResponseWriter, r *http.Request) {
	edges, err := h.social.PendingRequests(r.Context(), UserIDFrom(r.Context()), limitParam(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, edges)
}

func (h *Handler) Followers(w http.ResponseWriter, r *http.Request) {
	edges, err := h.social.Followers(r.Context(), mux.Vars(r)["id"], limitParam(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, edges)
}

func (h *Handler) Following(w http.ResponseWriter, r *http.Request) {
	edges, err := h.social.Following(r.Context(), mux.Vars(r)["id"], limitParam(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, edges)
}
