package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/messagely/backend/internal/auth/guard"
	"github.com/messagely/backend/internal/common/config"
	commonhttp "github.com/messagely/backend/internal/common/http"
	"github.com/messagely/backend/internal/common/logger"
	messagedomain "github.com/messagely/backend/internal/message/domain"
	messagerepo "github.com/messagely/backend/internal/message/repository"
	userdomain "github.com/messagely/backend/internal/user/domain"
	userservice "github.com/messagely/backend/internal/user/service"
)

type userDTO struct {
	Username    string    `json:"username"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Phone       string    `json:"phone"`
	JoinedAt    time.Time `json:"joined_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}

type counterpartDTO struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type messageDTO struct {
	ID       int64           `json:"id"`
	Body     string          `json:"body"`
	SentAt   time.Time       `json:"sent_at"`
	ReadAt   *time.Time      `json:"read_at"`
	FromUser *counterpartDTO `json:"from_user,omitempty"`
	ToUser   *counterpartDTO `json:"to_user,omitempty"`
}

type usersResponse struct {
	Users []userDTO `json:"users"`
}

type userResponse struct {
	User userDTO `json:"user"`
}

type messagesResponse struct {
	Messages []messageDTO `json:"messages"`
}

type Handler struct {
	users    *userservice.Service
	messages messagerepo.Repository
	log      *logger.Logger

	listHandler http.Handler
	toHandler   http.Handler
	fromHandler http.Handler
}

// NewHandler wires the directory and thread routes with their guards.
// The detail route deliberately has no guard: the source system exposes
// single-user lookups publicly, and that policy is preserved rather than
// silently tightened.
func NewHandler(
	users *userservice.Service,
	messages messagerepo.Repository,
	tokens guard.TokenVerifier,
	cfg config.Config,
	log *logger.Logger,
) http.Handler {
	h := &Handler{
		users:    users,
		messages: messages,
		log:      log,
	}

	withTimeout := commonhttp.WithTimeout(cfg.RequestTimeout)
	requireGet := commonhttp.RequireMethod(http.MethodGet)

	loggedIn := guard.NewLoggedIn(tokens, log)
	correctUser := guard.NewCorrectUser(log)

	h.listHandler = guard.Protect(log, loggedIn)(requireGet(withTimeout(h.list)))
	h.toHandler = guard.Protect(log, loggedIn, correctUser)(requireGet(withTimeout(h.messagesTo)))
	h.fromHandler = guard.Protect(log, loggedIn, correctUser)(requireGet(withTimeout(h.messagesFrom)))

	mux := http.NewServeMux()
	mux.Handle("/api/users", h.listHandler)
	mux.HandleFunc("/api/users/", h.dispatch)
	return mux
}

// dispatch routes /api/users/{username}[/to|/from] by path shape; the
// stdlib mux only gives us the subtree.
func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/users/")
	rest = strings.TrimSuffix(rest, "/")
	parts := strings.Split(rest, "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		commonhttp.RequireMethod(http.MethodGet)(h.detail)(w, r)
	case len(parts) == 2 && parts[1] == "to":
		h.toHandler.ServeHTTP(w, r)
	case len(parts) == 2 && parts[1] == "from":
		h.fromHandler.ServeHTTP(w, r)
	default:
		commonhttp.WriteErrorEnvelope(w, http.StatusNotFound, commonhttp.CodeInvalidPath, "not found")
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	resp := usersResponse{Users: make([]userDTO, 0, len(users))}
	for _, u := range users {
		resp.Users = append(resp.Users, toUserDTO(u))
	}

	commonhttp.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) detail(w http.ResponseWriter, r *http.Request) {
	username, ok := guard.UsernameFromPath(r.URL.Path)
	if !ok {
		commonhttp.WriteErrorEnvelope(w, http.StatusNotFound, commonhttp.CodeInvalidPath, "not found")
		return
	}

	user, err := h.users.Get(r.Context(), username)
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, userResponse{User: toUserDTO(user)})
}

func (h *Handler) messagesTo(w http.ResponseWriter, r *http.Request) {
	username, _ := guard.UsernameFromPath(r.URL.Path)

	messages, err := h.messages.MessagesTo(r.Context(), username)
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, toMessagesResponse(messages, directionTo))
}

func (h *Handler) messagesFrom(w http.ResponseWriter, r *http.Request) {
	username, _ := guard.UsernameFromPath(r.URL.Path)

	messages, err := h.messages.MessagesFrom(r.Context(), username)
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, toMessagesResponse(messages, directionFrom))
}

type direction int

const (
	// directionTo: the caller received these, counterpart is the sender.
	directionTo direction = iota
	// directionFrom: the caller sent these, counterpart is the recipient.
	directionFrom
)

func toMessagesResponse(messages []messagedomain.MessageWithCounterpart, dir direction) messagesResponse {
	resp := messagesResponse{Messages: make([]messageDTO, 0, len(messages))}
	for _, m := range messages {
		dto := messageDTO{
			ID:     m.ID,
			Body:   m.Body,
			SentAt: m.SentAt,
			ReadAt: m.ReadAt,
		}
		counterpart := &counterpartDTO{
			Username:  m.Counterpart.Username,
			FirstName: m.Counterpart.FirstName,
			LastName:  m.Counterpart.LastName,
			Phone:     m.Counterpart.Phone,
		}
		if dir == directionTo {
			dto.FromUser = counterpart
		} else {
			dto.ToUser = counterpart
		}
		resp.Messages = append(resp.Messages, dto)
	}
	return resp
}

func toUserDTO(u userdomain.Public) userDTO {
	return userDTO{
		Username:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Phone:       u.Phone,
		JoinedAt:    u.JoinedAt,
		LastLoginAt: u.LastLoginAt,
	}
}
