package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vianajose7/faaxis/modules/account"
	"github.com/vianajose7/faaxis/pkg/validator"
)

type errorResponse struct {
	Error        string            `json:"error"`
	Fields       map[string]string `json:"fields,omitempty"`
	Handle       string            `json:"handle,omitempty"`
	TOTPRequired bool              `json:"totp_required,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := errorResponse{Error: err.Error()}

	if stepUp, ok := IsStepUpRequired(err); ok {
		resp.Error = "step_up_required"
		resp.Handle = stepUp.Handle
		resp.TOTPRequired = stepUp.TOTP
	}
	if vErrs := validator.ExtractValidationErrors(err); len(vErrs) > 0 {
		resp.Error = "validation_failed"
		resp.Fields = make(map[string]string, len(vErrs))
		for _, v := range vErrs {
			resp.Fields[v.Field] = v.Message
		}
	}

	writeJSON(w, status, resp)
}

// serviceError maps domain errors onto HTTP statuses. Unrecognized errors
// are internal; their text never reaches the client.
func serviceError(w http.ResponseWriter, err error) {
	switch {
	case validator.IsValidationError(err):
		writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, account.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err)
	case errors.Is(err, account.ErrEmailAlreadyRegistered):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, account.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, account.ErrVerifyTokenInvalid),
		errors.Is(err, account.ErrVerifyTokenExpired),
		errors.Is(err, account.ErrTOTPCodeInvalid),
		errors.Is(err, account.ErrTOTPNotEnabled),
		errors.Is(err, account.ErrTOTPNotPending),
		errors.Is(err, account.ErrTOTPAlreadyEnabled):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, ErrInvalidCode), errors.Is(err, ErrNoAdminFlow):
		writeError(w, http.StatusUnauthorized, err)
	case errors.Is(err, ErrCodeLockedOut):
		writeError(w, http.StatusTooManyRequests, err)
	case errors.Is(err, ErrNotAdminCapable):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err)
	default:
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("malformed request body"))
		return false
	}
	return true
}

// accountResponse is the public projection of an account. The credential
// never leaves the server.
type accountResponse struct {
	ID            int64  `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	IsAdmin       bool   `json:"is_admin"`
	Premium       bool   `json:"premium"`
	TOTPEnabled   bool   `json:"totp_enabled"`
}

func toAccountResponse(a *account.Account) accountResponse {
	return accountResponse{
		ID:            a.ID,
		Email:         a.Email,
		EmailVerified: a.EmailVerified,
		IsAdmin:       a.IsAdmin,
		Premium:       a.Premium,
		TOTPEnabled:   a.TOTPEnabled,
	}
}
