package booking

import "motoserve/internal/auth"

type Action string

const (
	ActionRead          Action = "read"
	ActionListAll       Action = "list_all"
	ActionUpdateDetails Action = "update_details"
	ActionUpdatePayment Action = "update_payment"
	ActionMaintainItems Action = "maintain_items"
	ActionDelete        Action = "delete"
)

type permission struct {
	owner bool
	roles []string
}

// permissions is the full authorization matrix for existing bookings.
// owner means the booking's customer may perform the action on their own
// booking; roles may perform it on any booking.
var permissions = map[Action]permission{
	ActionRead:          {owner: true, roles: []string{auth.RoleAdmin, auth.RoleMechanic}},
	ActionListAll:       {roles: []string{auth.RoleAdmin, auth.RoleMechanic}},
	ActionUpdateDetails: {owner: true, roles: []string{auth.RoleAdmin}},
	ActionUpdatePayment: {roles: []string{auth.RoleAdmin, auth.RoleMechanic}},
	ActionMaintainItems: {roles: []string{auth.RoleAdmin, auth.RoleMechanic}},
	ActionDelete:        {owner: true, roles: []string{auth.RoleAdmin}},
}

// Authorize checks whether the caller may perform action on a booking owned
// by ownerID. For actions without a target booking, pass ownerID 0.
func Authorize(action Action, callerID int, callerRole string, ownerID int) error {
	perm, ok := permissions[action]
	if !ok {
		return ErrForbidden
	}

	if perm.owner && callerID == ownerID {
		return nil
	}

	for _, role := range perm.roles {
		if callerRole == role {
			return nil
		}
	}

	return ErrForbidden
}
