package authorization

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleEditor UserRole = "editor"
	RoleReader UserRole = "reader"
)

var validRoles = map[UserRole]struct{}{
	RoleAdmin:  {},
	RoleEditor: {},
	RoleReader: {},
}

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) IsValid() bool {
	_, ok := validRoles[r]
	return ok
}

// Value defaults an unset role to editor, matching the column default.
func (r UserRole) Value() (driver.Value, error) {
	if r == "" {
		return string(RoleEditor), nil
	}
	if !r.IsValid() {
		return nil, fmt.Errorf("invalid user role: %q", r)
	}
	return string(r), nil
}

func (r *UserRole) Scan(value interface{}) error {
	if value == nil {
		*r = RoleEditor
		return nil
	}

	switch v := value.(type) {
	case string:
		role := UserRole(strings.ToLower(strings.TrimSpace(v)))
		if !role.IsValid() {
			return fmt.Errorf("invalid user role: %q", v)
		}
		*r = role
		return nil
	case []byte:
		role := UserRole(strings.ToLower(strings.TrimSpace(string(v))))
		if !role.IsValid() {
			return fmt.Errorf("invalid user role: %q", v)
		}
		*r = role
		return nil
	default:
		return fmt.Errorf("unsupported type for UserRole: %T", value)
	}
}

type Permission string

const (
	PermissionEditPages      Permission = "edit_pages"
	PermissionDeletePages    Permission = "delete_pages"
	PermissionUploadFiles    Permission = "upload_files"
	PermissionManagePlugins  Permission = "manage_plugins"
	PermissionManageSettings Permission = "manage_settings"
	PermissionPurgeCaches    Permission = "purge_caches"
	PermissionViewStatistics Permission = "view_statistics"
)

var rolePermissions = map[UserRole]map[Permission]struct{}{
	RoleAdmin: {
		PermissionEditPages:      {},
		PermissionDeletePages:    {},
		PermissionUploadFiles:    {},
		PermissionManagePlugins:  {},
		PermissionManageSettings: {},
		PermissionPurgeCaches:    {},
		PermissionViewStatistics: {},
	},
	RoleEditor: {
		PermissionEditPages:   {},
		PermissionUploadFiles: {},
	},
	RoleReader: {},
}

func RoleHasPermission(role UserRole, permission Permission) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	_, ok = perms[permission]
	return ok
}

func ParseUserRole(value interface{}) (UserRole, bool) {
	switch v := value.(type) {
	case UserRole:
		if !v.IsValid() {
			return "", false
		}
		return v, true
	case string:
		role := UserRole(strings.ToLower(strings.TrimSpace(v)))
		if !role.IsValid() {
			return "", false
		}
		return role, true
	case []byte:
		role := UserRole(strings.ToLower(strings.TrimSpace(string(v))))
		if !role.IsValid() {
			return "", false
		}
		return role, true
	default:
		return "", false
	}
}

func ValidRoles() []UserRole {
	roles := make([]UserRole, 0, len(validRoles))
	for role := range validRoles {
		roles = append(roles, role)
	}
	return roles
}
