package models

// Group names as stored in the groups table.
const (
	GroupManager      = "Manager"
	GroupDeliveryCrew = "Delivery Crew"
)

// StaffGroups lists the groups that are seeded on startup.
var StaffGroups = []string{GroupManager, GroupDeliveryCrew}

// Role is the single role an identity acts with during one request.
type Role int

const (
	RoleCustomer Role = iota
	RoleDeliveryCrew
	RoleManager
)

func (r Role) String() string {
	switch r {
	case RoleManager:
		return "manager"
	case RoleDeliveryCrew:
		return "delivery_crew"
	default:
		return "customer"
	}
}

// MarshalText renders the role by name in JSON.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// ResolveRole maps group memberships to a role. Manager wins over Delivery
// Crew, and anyone in neither group is a Customer.
func ResolveRole(groups []string) Role {
	crew := false
	for _, g := range groups {
		switch g {
		case GroupManager:
			return RoleManager
		case GroupDeliveryCrew:
			crew = true
		}
	}
	if crew {
		return RoleDeliveryCrew
	}
	return RoleCustomer
}

// Identity is the authenticated caller with its role resolved once per request.
type Identity struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

func (i Identity) IsManager() bool      { return i.Role == RoleManager }
func (i Identity) IsDeliveryCrew() bool { return i.Role == RoleDeliveryCrew }
func (i Identity) IsCustomer() bool     { return i.Role == RoleCustomer }
