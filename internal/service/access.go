package service

import (
	"github.com/ilumap/pqr-api/internal/models"
	appErrors "github.com/ilumap/pqr-api/pkg/errors"
)

// Capability names an operation gated by role.
type Capability string

const (
	CapCreateRequest    Capability = "create_request"
	CapListRequests     Capability = "list_requests"
	CapTransitionStatus Capability = "transition_status"
	CapManageClients    Capability = "manage_clients"
	CapViewInventory    Capability = "view_inventory"
	CapExportRequests   Capability = "export_requests"
)

var allRoles = []models.UserRole{models.RoleAdmin, models.RoleTechnician, models.RoleOperator}

// capabilities is the single source of truth for role gating. Routes and the
// lifecycle engine both consult it through Authorize.
var capabilities = map[Capability][]models.UserRole{
	CapCreateRequest:    allRoles,
	CapListRequests:     allRoles,
	CapTransitionStatus: {models.RoleAdmin, models.RoleTechnician},
	CapManageClients:    allRoles,
	CapViewInventory:    allRoles,
	CapExportRequests:   allRoles,
}

// Allowed reports whether role holds capability. Unknown capabilities are denied.
func Allowed(role models.UserRole, capability Capability) bool {
	for _, r := range capabilities[capability] {
		if r == role {
			return true
		}
	}
	return false
}

// Authorize returns a forbidden error when claims lack capability.
func Authorize(claims *models.JWTClaims, capability Capability) error {
	if claims == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if !Allowed(claims.Role, capability) {
		return appErrors.Clone(appErrors.ErrForbidden, "insufficient permissions")
	}
	return nil
}
