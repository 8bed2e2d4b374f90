// Package identity carries the pre-verified caller identity through a request.
// Token handling lives in the gateway in front of this service; headers are trusted.
package identity

import (
	"context"
	"net/http"
	"strings"
)

const (
	HeaderCustomerID = "X-Customer-ID"
	HeaderRole       = "X-Role"
)

// Role is the actor's permission level
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

// Actor is the authenticated caller of a core operation
type Actor struct {
	CustomerID string
	Role       Role
}

// Customer returns a customer actor
func Customer(id string) Actor {
	return Actor{CustomerID: id, Role: RoleCustomer}
}

// Staff returns a staff actor
func Staff(id string) Actor {
	return Actor{CustomerID: id, Role: RoleStaff}
}

// Admin returns an admin actor
func Admin(id string) Actor {
	return Actor{CustomerID: id, Role: RoleAdmin}
}

func (a Actor) Anonymous() bool {
	return a.CustomerID == ""
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsStaff reports whether the actor may drive order and reservation workflows.
// Admins are staff too.
func (a Actor) IsStaff() bool {
	return a.Role == RoleStaff || a.Role == RoleAdmin
}

// Owns reports whether a record belonging to customerID is the actor's own
func (a Actor) Owns(customerID string) bool {
	return !a.Anonymous() && a.CustomerID == customerID
}

// CanView reports whether the actor may read a record owned by customerID
func (a Actor) CanView(customerID string) bool {
	return a.IsStaff() || a.Owns(customerID)
}

type ctxKey struct{}

// WithActor stores the actor in ctx
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, actor)
}

// FromContext returns the actor stored in ctx. Missing identity yields an anonymous customer.
func FromContext(ctx context.Context) Actor {
	actor, ok := ctx.Value(ctxKey{}).(Actor)
	if !ok {
		return Actor{Role: RoleCustomer}
	}
	return actor
}

// FromRequest reads the identity headers set by the gateway
func FromRequest(r *http.Request) Actor {
	actor := Actor{
		CustomerID: strings.TrimSpace(r.Header.Get(HeaderCustomerID)),
		Role:       RoleCustomer,
	}
	switch Role(strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderRole)))) {
	case RoleStaff:
		actor.Role = RoleStaff
	case RoleAdmin:
		actor.Role = RoleAdmin
	}
	return actor
}

// Middleware attaches the request's actor to its context
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithActor(r.Context(), FromRequest(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
