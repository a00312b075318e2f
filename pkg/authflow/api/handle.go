package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/assia769/Assojet-sub000/pkg/authflow"
	errs "github.com/assia769/Assojet-sub000/pkg/errors"
	"github.com/assia769/Assojet-sub000/pkg/tokengenerator"
)

type Handle struct {
	authFlowService *authflow.Service
	cookieSetter    tokengenerator.CookieSetter
}

// NewHandle creates a new Handle
func NewHandle(authFlowService *authflow.Service, cookieSetter tokengenerator.CookieSetter) *Handle {
	return &Handle{
		authFlowService: authFlowService,
		cookieSetter:    cookieSetter,
	}
}

// Routes mounts the public login endpoints
func (h *Handle) Routes(r chi.Router) {
	r.Post("/login", h.PostLogin)
	r.Post("/login/verify", h.PostLoginVerify)
}

// ProtectedRoutes mounts the 2FA management endpoints. The caller wraps
// them in the jwtauth verifier middleware.
func (h *Handle) ProtectedRoutes(r chi.Router) {
	r.Post("/2fa/setup", h.Post2faSetup)
	r.Post("/2fa/confirm", h.Post2faConfirm)
	r.Post("/2fa/disable", h.Post2faDisable)
}

type (
	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	LoginVerifyRequest struct {
		PendingToken string `json:"pending_token"`
		Code         string `json:"code"`
	}

	TwoFaConfirmRequest struct {
		PendingToken string `json:"pending_token"`
		Code         string `json:"code"`
	}

	TwoFaDisableRequest struct {
		Password string `json:"password"`
	}

	SessionResponse struct {
		Token     string `json:"token"`
		UserID    string `json:"user_id"`
		Email     string `json:"email"`
		Role      string `json:"role"`
		ExpiresAt string `json:"expires_at"`
	}

	LoginResponse struct {
		Requires2FA  bool             `json:"requires_2fa"`
		PendingToken string           `json:"pending_token,omitempty"`
		ExpiresIn    int              `json:"expires_in,omitempty"`
		Session      *SessionResponse `json:"session,omitempty"`
	}

	TwoFaSetupResponse struct {
		PendingToken    string   `json:"pending_token"`
		ExpiresIn       int      `json:"expires_in"`
		Secret          string   `json:"secret"`
		ProvisioningURI string   `json:"provisioning_uri"`
		BackupCodes     []string `json:"backup_codes"`
	}

	SuccessResponse struct {
		Result string `json:"result"`
	}

	ErrorResponse struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
)

// PostLogin handles the first authentication factor
// (POST /login)
func (h *Handle) PostLogin(w http.ResponseWriter, r *http.Request) {
	data := LoginRequest{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		renderBadRequest(w, r, "unable to parse body")
		return
	}
	if data.Email == "" || data.Password == "" {
		renderBadRequest(w, r, "email and password are required")
		return
	}

	result, err := h.authFlowService.BeginLogin(r.Context(), data.Email, data.Password)
	if err != nil {
		renderError(w, r, err)
		return
	}

	resp := LoginResponse{
		Requires2FA:  result.RequiresTwoFA,
		PendingToken: result.PendingToken,
		ExpiresIn:    result.ExpiresIn,
	}
	if result.Session != nil {
		resp.Session = h.sessionResponse(w, *result.Session)
	}
	render.JSON(w, r, resp)
}

// PostLoginVerify completes a login with a second-factor code
// (POST /login/verify)
func (h *Handle) PostLoginVerify(w http.ResponseWriter, r *http.Request) {
	data := LoginVerifyRequest{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		renderBadRequest(w, r, "unable to parse body")
		return
	}
	if data.PendingToken == "" || data.Code == "" {
		renderBadRequest(w, r, "pending_token and code are required")
		return
	}

	session, err := h.authFlowService.VerifyLogin(r.Context(), data.PendingToken, data.Code)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, LoginResponse{Session: h.sessionResponse(w, session)})
}

// Post2faSetup starts a 2FA enrollment for the authenticated user
// (POST /2fa/setup)
func (h *Handle) Post2faSetup(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(w, r)
	if !ok {
		return
	}

	result, err := h.authFlowService.BeginEnrollment(r.Context(), userID)
	if err != nil {
		renderError(w, r, err)
		return
	}

	var resp TwoFaSetupResponse
	if err := copier.Copy(&resp, &result); err != nil {
		slog.Error("failed to map enrollment response", "err", err)
		renderError(w, r, errs.Internal("failed to map response"))
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, resp)
}

// Post2faConfirm activates a pending enrollment
// (POST /2fa/confirm)
func (h *Handle) Post2faConfirm(w http.ResponseWriter, r *http.Request) {
	data := TwoFaConfirmRequest{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		renderBadRequest(w, r, "unable to parse body")
		return
	}
	if data.PendingToken == "" || data.Code == "" {
		renderBadRequest(w, r, "pending_token and code are required")
		return
	}

	if err := h.authFlowService.ConfirmEnrollment(r.Context(), data.PendingToken, data.Code); err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, SuccessResponse{Result: "success"})
}

// Post2faDisable turns off 2FA after re-verifying the password
// (POST /2fa/disable)
func (h *Handle) Post2faDisable(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(w, r)
	if !ok {
		return
	}

	data := TwoFaDisableRequest{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		renderBadRequest(w, r, "unable to parse body")
		return
	}
	if data.Password == "" {
		renderBadRequest(w, r, "password is required")
		return
	}

	if err := h.authFlowService.Disable2FA(r.Context(), userID, data.Password); err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, SuccessResponse{Result: "success"})
}

func (h *Handle) sessionResponse(w http.ResponseWriter, session authflow.AuthenticatedSession) *SessionResponse {
	if h.cookieSetter != nil {
		if err := h.cookieSetter.SetCookie(w, tokengenerator.AccessTokenName, session.Token, session.ExpiresAt); err != nil {
			slog.Error("failed to set session cookie", "err", err)
		}
	}
	return &SessionResponse{
		Token:     session.Token,
		UserID:    session.UserID.String(),
		Email:     session.Email,
		Role:      string(session.Role),
		ExpiresAt: session.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// authenticatedUserID extracts the user ID from the verified JWT claims.
func authenticatedUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		renderStatus(w, r, http.StatusUnauthorized, ErrorResponse{
			Code:    string(errs.ErrCodeInvalidSession),
			Message: "missing or invalid token",
		})
		return uuid.Nil, false
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		slog.Warn("token subject is not a user id", "sub", sub)
		renderStatus(w, r, http.StatusUnauthorized, ErrorResponse{
			Code:    string(errs.ErrCodeInvalidSession),
			Message: "missing or invalid token",
		})
		return uuid.Nil, false
	}
	return userID, true
}

func renderError(w http.ResponseWriter, r *http.Request, err error) {
	code := errs.GetCode(err)
	status := errs.MapErrorCodeToHTTPStatus(code)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "err", err)
		renderStatus(w, r, status, ErrorResponse{
			Code:    string(errs.ErrCodeInternal),
			Message: "internal error",
		})
		return
	}

	message := "request failed"
	var structured *errs.Error
	if errors.As(err, &structured) {
		message = structured.Message
	}
	renderStatus(w, r, status, ErrorResponse{
		Code:    string(code),
		Message: message,
	})
}

func renderBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	renderStatus(w, r, http.StatusBadRequest, ErrorResponse{
		Code:    string(errs.ErrCodeInvalidInput),
		Message: message,
	})
}

func renderStatus(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	render.Status(r, status)
	render.JSON(w, r, body)
}
