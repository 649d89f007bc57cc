package api

import (
	"net/http"
)

// Identity describes the authenticated caller. A nil *Identity means
// the request is anonymous.
type Identity struct {
	UserID   string
	Username string
	TokenID  string // jti of the presented token, needed for logout
	IsAdmin  bool
}

// Decision is the outcome of an access-control check.
type Decision int

const (
	Allow Decision = iota
	DenyUnauthenticated // no or invalid credentials: 401
	DenyForbidden       // authenticated but lacking role or ownership: 403
)

// Rule names the access policy guarding a resource.
type Rule int

const (
	// RuleAdminOrReadOnly guards catalog resources: anyone may read,
	// only admins may write.
	RuleAdminOrReadOnly Rule = iota
	// RuleOwnerOrReadOnly guards a review: anyone may read, only the
	// owning account or an admin may write.
	RuleOwnerOrReadOnly
	// RuleAuthenticated requires any authenticated account.
	RuleAuthenticated
	// RuleAdminOnly requires an admin for every method.
	RuleAdminOnly
)

// Decide is the access-control decision function. It is pure: given the
// rule, the HTTP method, the caller and, for ownership rules, the
// resource owner's account ID, it returns the decision and nothing
// else happens.
func Decide(rule Rule, method string, ident *Identity, ownerID string) Decision {
	switch rule {
	case RuleAdminOrReadOnly:
		if isReadMethod(method) {
			return Allow
		}
		if ident == nil {
			return DenyUnauthenticated
		}
		if !ident.IsAdmin {
			return DenyForbidden
		}
		return Allow
	case RuleOwnerOrReadOnly:
		if isReadMethod(method) {
			return Allow
		}
		if ident == nil {
			return DenyUnauthenticated
		}
		if ident.IsAdmin || ident.UserID == ownerID {
			return Allow
		}
		return DenyForbidden
	case RuleAuthenticated:
		if ident == nil {
			return DenyUnauthenticated
		}
		return Allow
	case RuleAdminOnly:
		if ident == nil {
			return DenyUnauthenticated
		}
		if !ident.IsAdmin {
			return DenyForbidden
		}
		return Allow
	}
	return DenyForbidden
}

func isReadMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
