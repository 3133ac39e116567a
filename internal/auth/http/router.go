package http

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/messagely/backend/internal/auth/service"
	"github.com/messagely/backend/internal/common/config"
	commonhttp "github.com/messagely/backend/internal/common/http"
	"github.com/messagely/backend/internal/common/logger"
)

type registerRequest struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type Handler struct {
	auth     *service.AuthService
	validate *validator.Validate
	log      *logger.Logger
}

func NewHandler(auth *service.AuthService, cfg config.Config, log *logger.Logger) http.Handler {
	h := &Handler{
		auth:     auth,
		validate: validator.New(),
		log:      log,
	}

	withTimeout := commonhttp.WithTimeout(cfg.RequestTimeout)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/register", commonhttp.RequireMethod(http.MethodPost)(withTimeout(h.register)))
	mux.HandleFunc("/api/auth/login", commonhttp.RequireMethod(http.MethodPost)(withTimeout(h.login)))
	return mux
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.log.Warnf("register failed: invalid json: %v", err)
		commonhttp.WriteErrorEnvelope(w, http.StatusBadRequest, commonhttp.CodeInvalidJSON, "invalid json")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.log.Warnf("register failed: validation: %v", err)
		commonhttp.WriteErrorEnvelope(w, http.StatusBadRequest, "VALIDATION_FAILED", "all fields are required")
		return
	}

	tokenString, err := h.auth.Register(r.Context(), service.RegisterInput{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	commonhttp.WriteJSON(w, http.StatusCreated, tokenResponse{Token: tokenString})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.log.Warnf("login failed: invalid json: %v", err)
		commonhttp.WriteErrorEnvelope(w, http.StatusBadRequest, commonhttp.CodeInvalidJSON, "invalid json")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.log.Warnf("login failed: validation: %v", err)
		commonhttp.WriteErrorEnvelope(w, http.StatusBadRequest, "VALIDATION_FAILED", "username and password are required")
		return
	}

	tokenString, err := h.auth.Login(r.Context(), service.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, tokenResponse{Token: tokenString})
}
