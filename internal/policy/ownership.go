// Package policy implements ownership-based authorization. A resource is
// accessible only to the user that owns it; handlers surface a denied check
// as not-found so existence is never confirmed to other users.
package policy

// Ownable is implemented by models that have an owning user.
type Ownable interface {
	GetUserID() uint
}

// OwnershipPolicy checks that the acting user owns the resource.
type OwnershipPolicy struct{}

// NewOwnershipPolicy creates a new ownership policy.
func NewOwnershipPolicy() *OwnershipPolicy { return &OwnershipPolicy{} }

// Can reports whether userID may act on resource. A nil resource (list or
// create, nothing specific to check) is always allowed; a resource that does
// not implement Ownable is denied by default so unowned types cannot slip
// through unchecked.
func (p *OwnershipPolicy) Can(userID uint, resource any) bool {
	if userID == 0 {
		return false
	}
	if resource == nil {
		return true
	}
	ownable, ok := resource.(Ownable)
	if !ok {
		return false
	}
	return ownable.GetUserID() == userID
}
