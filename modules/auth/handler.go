package auth

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vianajose7/faaxis/modules/account"
	"github.com/vianajose7/faaxis/pkg/clientip"
	"github.com/vianajose7/faaxis/pkg/jwt"
	"github.com/vianajose7/faaxis/pkg/logger"
	"github.com/vianajose7/faaxis/pkg/mailer"
	"github.com/vianajose7/faaxis/pkg/otpcode"
	"github.com/vianajose7/faaxis/pkg/session"
)

// Handler is the JSON surface of the auth module. Handlers are thin: decode,
// call the service, encode. Authorization decisions live in the resolver
// middleware, never inline.
type Handler struct {
	accounts    *account.Service
	sessions    *session.Manager
	issuer      *jwt.Issuer
	codes       *otpcode.Registry
	gate        *StepUpGate
	resolver    *Resolver
	emailSender mailer.EmailSender
	log         *slog.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the logger.
func WithHandlerLogger(log *slog.Logger) HandlerOption {
	return func(h *Handler) { h.log = log }
}

// WithHandlerEmailSender sets the delivery collaborator for one-time codes.
func WithHandlerEmailSender(sender mailer.EmailSender) HandlerOption {
	return func(h *Handler) { h.emailSender = sender }
}

// NewHandler creates the auth HTTP handler.
func NewHandler(accounts *account.Service, sessions *session.Manager, issuer *jwt.Issuer, codes *otpcode.Registry, gate *StepUpGate, resolver *Resolver, opts ...HandlerOption) *Handler {
	h := &Handler{
		accounts: accounts,
		sessions: sessions,
		issuer:   issuer,
		codes:    codes,
		gate:     gate,
		resolver: resolver,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes mounts the auth endpoints on a fresh router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.resolver.Middleware)

	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
	r.Get("/verify", h.verifyEmail)

	r.Post("/otp/request", h.otpRequest)
	r.Post("/otp/verify", h.otpVerify)

	r.Post("/password/forgot", h.passwordForgot)
	r.Post("/password/reset", h.passwordReset)

	r.Post("/admin/login", h.adminLogin)
	r.Post("/admin/step-up", h.adminStepUp)

	r.Group(func(pr chi.Router) {
		pr.Use(RequireAuth)
		pr.Get("/me", h.me)
		pr.Post("/password/change", h.passwordChange)
		pr.Post("/totp/enroll", h.totpEnroll)
		pr.Post("/totp/activate", h.totpActivate)
		pr.Post("/totp/disable", h.totpDisable)
	})

	return r
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token   string          `json:"token"`
	Account accountResponse `json:"account"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	acct, err := h.accounts.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		serviceError(w, err)
		return
	}

	if _, err := h.sessions.Authenticate(r.Context(), w, r, acct.ID); err != nil {
		serviceError(w, err)
		return
	}

	h.log.InfoContext(r.Context(), "account registered",
		logger.Component("auth"),
		logger.AccountID(acct.ID),
		logger.ClientIP(clientip.FromContext(r.Context())))
	writeJSON(w, http.StatusCreated, toAccountResponse(acct))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	acct, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		serviceError(w, err)
		return
	}

	if _, err := h.sessions.Authenticate(r.Context(), w, r, acct.ID); err != nil {
		serviceError(w, err)
		return
	}

	token, err := h.issuer.Issue(acct.ID, acct.Email, acct.IsAdmin, acct.Premium)
	if err != nil {
		serviceError(w, err)
		return
	}

	h.log.InfoContext(r.Context(), "account logged in",
		logger.Component("auth"),
		logger.AccountID(acct.ID),
		logger.ClientIP(clientip.FromContext(r.Context())))
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, Account: toAccountResponse(acct)})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context(), w, r); err != nil {
		serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	acct, err := h.accounts.VerifyEmail(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(acct))
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	writeJSON(w, http.StatusOK, toAccountResponse(id.Account))
}

type otpRequestRequest struct {
	Email string `json:"email"`
}

type otpChallengeResponse struct {
	Handle    string    `json:"handle"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) otpRequest(w http.ResponseWriter, r *http.Request) {
	var req otpRequestRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	// Issued unconditionally so the response shape never reveals whether the
	// address is registered. Delivery only happens for real accounts.
	challenge, err := h.codes.Issue(r.Context(), req.Email, otpcode.PurposeLoginOTP)
	if err != nil {
		serviceError(w, err)
		return
	}
	h.deliverCode(r, challenge, mailer.LoginCodeEmail)

	writeJSON(w, http.StatusAccepted, otpChallengeResponse{
		Handle:    challenge.Handle,
		ExpiresAt: challenge.ExpiresAt,
	})
}

type otpVerifyRequest struct {
	Handle string `json:"handle"`
	Code   string `json:"code"`
}

func (h *Handler) otpVerify(w http.ResponseWriter, r *http.Request) {
	var req otpVerifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.codes.Consume(r.Context(), req.Handle, req.Code)
	if err != nil {
		serviceError(w, err)
		return
	}
	if result.Outcome == otpcode.OutcomeLockedOut {
		serviceError(w, ErrCodeLockedOut)
		return
	}
	if result.Outcome != otpcode.OutcomeSuccess || result.Purpose != otpcode.PurposeLoginOTP {
		serviceError(w, ErrInvalidCode)
		return
	}

	acct, err := h.accounts.GetByEmail(r.Context(), result.Email)
	if err != nil {
		// Code issued for an unregistered address. Indistinguishable from a
		// wrong code on purpose.
		serviceError(w, ErrInvalidCode)
		return
	}

	if _, err := h.sessions.Authenticate(r.Context(), w, r, acct.ID); err != nil {
		serviceError(w, err)
		return
	}
	token, err := h.issuer.Issue(acct.ID, acct.Email, acct.IsAdmin, acct.Premium)
	if err != nil {
		serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token, Account: toAccountResponse(acct)})
}

func (h *Handler) passwordForgot(w http.ResponseWriter, r *http.Request) {
	var req otpRequestRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	challenge, err := h.codes.Issue(r.Context(), req.Email, otpcode.PurposePasswordReset)
	if err != nil {
		serviceError(w, err)
		return
	}
	h.deliverCode(r, challenge, mailer.PasswordResetCodeEmail)

	writeJSON(w, http.StatusAccepted, otpChallengeResponse{
		Handle:    challenge.Handle,
		ExpiresAt: challenge.ExpiresAt,
	})
}

type passwordResetRequest struct {
	Handle      string `json:"handle"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

func (h *Handler) passwordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.codes.Consume(r.Context(), req.Handle, req.Code)
	if err != nil {
		serviceError(w, err)
		return
	}
	if result.Outcome == otpcode.OutcomeLockedOut {
		serviceError(w, ErrCodeLockedOut)
		return
	}
	if result.Outcome != otpcode.OutcomeSuccess || result.Purpose != otpcode.PurposePasswordReset {
		serviceError(w, ErrInvalidCode)
		return
	}

	if err := h.accounts.ResetPassword(r.Context(), result.Email, req.NewPassword); err != nil {
		serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type passwordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *Handler) passwordChange(w http.ResponseWriter, r *http.Request) {
	var req passwordChangeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id := IdentityFromContext(r.Context())
	if err := h.accounts.ChangePassword(r.Context(), id.AccountID(), req.CurrentPassword, req.NewPassword); err != nil {
		serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type totpEnrollResponse struct {
	Secret    string `json:"secret"`
	URI       string `json:"uri"`
	QRDataURI string `json:"qr_data_uri"`
}

func (h *Handler) totpEnroll(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	enrollment, err := h.accounts.BeginTOTPEnrollment(r.Context(), id.AccountID())
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totpEnrollResponse{
		Secret:    enrollment.Secret,
		URI:       enrollment.URI,
		QRDataURI: enrollment.QRDataURI,
	})
}

type totpActivateRequest struct {
	Code string `json:"code"`
}

type totpActivateResponse struct {
	RecoveryCodes []string `json:"recovery_codes"`
}

func (h *Handler) totpActivate(w http.ResponseWriter, r *http.Request) {
	var req totpActivateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id := IdentityFromContext(r.Context())
	codes, err := h.accounts.ActivateTOTP(r.Context(), id.AccountID(), req.Code)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totpActivateResponse{RecoveryCodes: codes})
}

type totpDisableRequest struct {
	Password string `json:"password"`
}

func (h *Handler) totpDisable(w http.ResponseWriter, r *http.Request) {
	var req totpDisableRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id := IdentityFromContext(r.Context())
	if err := h.accounts.DisableTOTP(r.Context(), id.AccountID(), req.Password); err != nil {
		serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type stepUpResponse struct {
	StepUpRequired bool   `json:"step_up_required"`
	Handle         string `json:"handle,omitempty"`
	TOTPRequired   bool   `json:"totp_required,omitempty"`
}

func (h *Handler) adminLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.gate.AdminLogin(r.Context(), w, r, req.Email, req.Password)
	if prompt, ok := IsStepUpRequired(err); ok {
		// The password was accepted; the client now collects the second
		// factor. This is the flow's success path for the first request.
		writeJSON(w, http.StatusOK, stepUpResponse{
			StepUpRequired: true,
			Handle:         prompt.Handle,
			TOTPRequired:   prompt.TOTP,
		})
		return
	}
	serviceError(w, err)
}

type adminStepUpRequest struct {
	Handle string `json:"handle"`
	Code   string `json:"code"`
}

func (h *Handler) adminStepUp(w http.ResponseWriter, r *http.Request) {
	var req adminStepUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, err := h.gate.CompleteAdminLogin(r.Context(), w, r, req.Handle, req.Code)
	if err != nil {
		serviceError(w, err)
		return
	}

	acct, err := h.accounts.GetByID(r.Context(), *sess.AccountID)
	if err != nil {
		serviceError(w, err)
		return
	}

	token, err := h.issuer.Issue(acct.ID, acct.Email, acct.IsAdmin, acct.Premium)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, Account: toAccountResponse(acct)})
}

// deliverCode emails a one-time code to registered addresses only. The
// response to the client is identical either way.
func (h *Handler) deliverCode(r *http.Request, challenge otpcode.Challenge, render func(string, string, time.Duration) (mailer.SendEmailParams, error)) {
	if h.emailSender == nil {
		return
	}
	if _, err := h.accounts.GetByEmail(r.Context(), challenge.Email); err != nil {
		return
	}

	params, err := render(challenge.Email, challenge.Code, time.Until(challenge.ExpiresAt))
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to render code email",
			logger.Component("auth"), logger.Error(err))
		return
	}
	if err := h.emailSender.SendEmail(r.Context(), params); err != nil {
		h.log.ErrorContext(r.Context(), "failed to send code email",
			logger.Component("auth"), logger.Error(err))
	}
}
