package authz

import (
	"errors"

	"lendhub/internal/domain"
)

var ErrForbidden = errors.New("forbidden")

type Action string

const (
	ActionReadCatalog     Action = "catalog:read"
	ActionManageEquipment Action = "catalog:manage"
	ActionCreateRequest   Action = "requests:create"
	ActionListOwnRequests Action = "requests:list_own"
	ActionListAllRequests Action = "requests:list_all"
	ActionDecideRequest   Action = "requests:decide"
	ActionViewDashboard   Action = "dashboard:view"
)

// capabilities enumerates every permission per role explicitly. Roles are
// not an inheritance chain: adding a role grants nothing until it is
// spelled out here.
var capabilities = map[domain.Role]map[Action]bool{
	domain.RoleUser: {
		ActionReadCatalog:     true,
		ActionCreateRequest:   true,
		ActionListOwnRequests: true,
	},
	domain.RoleStaff: {
		ActionReadCatalog:     true,
		ActionCreateRequest:   true,
		ActionListOwnRequests: true,
		ActionListAllRequests: true,
		ActionDecideRequest:   true,
	},
	domain.RoleAdmin: {
		ActionReadCatalog:     true,
		ActionCreateRequest:   true,
		ActionListOwnRequests: true,
		ActionListAllRequests: true,
		ActionDecideRequest:   true,
		ActionManageEquipment: true,
		ActionViewDashboard:   true,
	},
}

// Allowed reports whether the role holds the capability.
func Allowed(role domain.Role, action Action) bool {
	return capabilities[role][action]
}

// Authorize gates a service operation. Failing calls must cause no side
// effects in the caller, so services check this before touching storage.
func Authorize(id domain.Identity, action Action) error {
	if !Allowed(id.Role, action) {
		return ErrForbidden
	}
	return nil
}
