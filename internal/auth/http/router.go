package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/AlibekovAA/shotplot/backend/internal/auth/service"
	commonerrors "github.com/AlibekovAA/shotplot/backend/internal/common/errors"
	commonhttp "github.com/AlibekovAA/shotplot/backend/internal/common/http"
	"github.com/AlibekovAA/shotplot/backend/internal/common/logger"
	userdomain "github.com/AlibekovAA/shotplot/backend/internal/user/domain"
)

type Authenticator interface {
	Register(ctx context.Context, input service.RegisterInput) (userdomain.User, error)
	Login(ctx context.Context, input service.LoginInput) (userdomain.User, error)
}

// password stays raw so a non-string value can be told apart from a
// malformed body.
type registerRequest struct {
	Username string          `json:"username"`
	Password json.RawMessage `json:"password"`
	Email    string          `json:"email"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

const loginSuccessMessage = "Login successful"

type Handler struct {
	auth    Authenticator
	log     *logger.Logger
	errs    *commonhttp.ErrorHandler
	timeout time.Duration
}

func NewHandler(auth Authenticator, log *logger.Logger, requestTimeout time.Duration) *Handler {
	return &Handler{
		auth:    auth,
		log:     log,
		errs:    commonhttp.NewErrorHandler(log),
		timeout: requestTimeout,
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	post := commonhttp.RequireMethod(http.MethodPost)
	timeout := commonhttp.WithTimeout(h.timeout)

	mux.HandleFunc("/api/register", post(timeout(h.register)))
	mux.HandleFunc("/api/login", post(timeout(h.login)))
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.log.WithFields(r.Context(), logger.Fields{"action": "register_decode_failed"}).Warnf("register failed: invalid json: %v", err)
		h.errs.HandleError(w, r, decodeError(err))
		return
	}

	password, err := decodePassword(req.Password)
	if err != nil {
		h.log.WithFields(r.Context(), logger.Fields{
			"username": req.Username,
			"action":   "register_password_not_string",
		}).Warn("register failed: password is not a string")
		h.errs.HandleError(w, r, err)
		return
	}

	user, err := h.auth.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Password: password,
		Email:    req.Email,
	})
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusCreated, userResponse{
		ID:        string(user.ID),
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.log.WithFields(r.Context(), logger.Fields{"action": "login_decode_failed"}).Warnf("login failed: invalid json: %v", err)
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			h.errs.HandleError(w, r, service.ErrLoginFailed.WithCause(err))
			return
		}
		h.errs.HandleError(w, r, decodeError(err))
		return
	}

	if _, err := h.auth.Login(r.Context(), service.LoginInput{
		Username: req.Username,
		Password: req.Password,
	}); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, commonhttp.MessageResponse{Message: loginSuccessMessage})
}

func decodePassword(raw json.RawMessage) (string, error) {
	var password string
	if len(raw) == 0 || raw[0] != '"' || json.Unmarshal(raw, &password) != nil {
		return "", service.ErrPasswordNotString
	}
	return password, nil
}

func decodeError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return errRequestTooLarge.WithCause(err)
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return service.ErrValidation.WithMessage(fieldTitle(typeErr.Field) + " must be a string").WithCause(err)
	}
	return commonerrors.ErrInvalidJSON.WithCause(err)
}

var errRequestTooLarge = commonerrors.NewDomainError(
	"REQUEST_TOO_LARGE",
	commonerrors.CategoryValidation,
	http.StatusRequestEntityTooLarge,
	"request body too large",
)

func fieldTitle(field string) string {
	switch field {
	case "username":
		return "Username"
	case "email":
		return "Email"
	}
	return field
}
