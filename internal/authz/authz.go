// Package authz holds the authorization predicate used by the service layer.
// Keeping the ownership check behind a function value makes it testable
// independent of transport and swappable without touching the services.
package authz

// Action names a mutation a requester wants to perform on a resource.
type Action string

const (
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Owned is any resource that knows its owning user.
type Owned interface {
	OwnerID() string
}

// Predicate decides whether requesterID may perform action on resource.
type Predicate func(requesterID string, action Action, resource Owned) bool

// OwnerOnly is the default policy: only the resource owner may mutate it.
// There is no role or permission model beyond this equality check.
func OwnerOnly(requesterID string, _ Action, resource Owned) bool {
	return requesterID != "" && requesterID == resource.OwnerID()
}
