package auth

import (
	"github.com/vianajose7/faaxis/modules/account"
)

// Kind classifies how a request's caller was identified.
type Kind string

const (
	// KindAnonymous means no valid credential accompanied the request.
	KindAnonymous Kind = "anonymous"

	// KindAuthenticated means a valid bearer token or session identified an
	// account.
	KindAuthenticated Kind = "authenticated"
)

// Identity is the resolved caller of a request. Resolution is total: every
// request gets an Identity, anonymous at worst.
type Identity struct {
	Kind    Kind
	Account *account.Account

	// AdminCapable mirrors the account's admin flag. It grants nothing by
	// itself; admin routes additionally require StepUpSatisfied.
	AdminCapable bool

	// StepUpSatisfied is true only when the request's session carries a live
	// step-up grant. Bearer tokens never satisfy step-up on their own, since
	// sessions are revocable and tokens are not.
	StepUpSatisfied bool

	// TokenRefreshed carries a re-issued bearer token when the resolver
	// applied sliding expiration. Empty when no refresh happened.
	TokenRefreshed string
}

// IsAuthenticated reports whether the identity belongs to an account.
func (id Identity) IsAuthenticated() bool {
	return id.Kind == KindAuthenticated && id.Account != nil
}

// AccountID returns the identified account's id, or 0 for anonymous.
func (id Identity) AccountID() int64 {
	if id.Account == nil {
		return 0
	}
	return id.Account.ID
}

// anonymous is the zero identity every resolution starts from.
func anonymous() Identity {
	return Identity{Kind: KindAnonymous}
}
