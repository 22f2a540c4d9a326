package authz

import "fmt"

type Kind int

const (
	KindPermission Kind = iota + 1
	KindAdmin
	KindRole
	KindTenantMember
)

// Requirement is one thing a principal must satisfy. Build it with Permission, Admin, Role or TenantMember.
type Requirement struct {
	kind  Kind
	value string
}

// Permission requires the principal's role to grant code.
func Permission(code string) Requirement {
	return Requirement{kind: KindPermission, value: code}
}

// Admin requires the superuser role, under any of its configured names.
func Admin() Requirement {
	return Requirement{kind: KindAdmin}
}

// Role requires a role by name. Admin aliases are treated as one role.
func Role(name string) Requirement {
	return Requirement{kind: KindRole, value: name}
}

// TenantMember requires the principal to belong to the client.
func TenantMember(tenantID string) Requirement {
	return Requirement{kind: KindTenantMember, value: tenantID}
}

func (r Requirement) Kind() Kind {
	return r.kind
}

func (r Requirement) String() string {
	switch r.kind {
	case KindPermission:
		return "permission:" + r.value
	case KindAdmin:
		return "admin"
	case KindRole:
		return "role:" + r.value
	case KindTenantMember:
		return "tenant:" + r.value
	default:
		return fmt.Sprintf("unknown(%d)", r.kind)
	}
}
