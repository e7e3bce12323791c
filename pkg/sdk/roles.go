package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/mitchellh/mapstructure"
)

// Role names known to the client. Role names are lower case once resolved.
const (
	// DefaultRoleName is assigned when a role reference cannot be resolved to a name.
	DefaultRoleName = "viewer"
	// AdminRoleName guards the administrative operations.
	AdminRoleName = "admin"
)

// RoleLister fetches the role catalogue with an explicit access token.
type RoleLister interface {
	ListRoles(ctx context.Context, token string) ([]APIRole, error)
}

// ResolveRoleName maps a raw role reference (a numeric role_id or a role name)
// to the canonical lower-case role name.
//
// A role matches when its id equals ref or its name equals ref ignoring case.
// Without a match, a non-numeric ref is used as the name; a numeric ref is an
// unresolved id and yields DefaultRoleName.
func ResolveRoleName(ref string, roles []APIRole) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return DefaultRoleName
	}

	for _, role := range roles {
		if role.ID.String() == ref || strings.EqualFold(role.Name, ref) {
			if name := strings.TrimSpace(role.Name); name != "" {
				return strings.ToLower(name)
			}
		}
	}

	if isNumeric(ref) {
		return DefaultRoleName
	}
	return strings.ToLower(ref)
}

// RoleResolver resolves role references against the live role catalogue.
type RoleResolver struct {
	lister RoleLister
	logger *slog.Logger
}

// NewRoleResolver returns a resolver backed by lister.
func NewRoleResolver(lister RoleLister, logger *slog.Logger) *RoleResolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RoleResolver{lister: lister, logger: logger}
}

// Resolve fetches the roles with token and resolves ref. A failed fetch falls
// back to resolving against an empty catalogue.
func (r *RoleResolver) Resolve(ctx context.Context, token, ref string) string {
	var roles []APIRole
	if r.lister != nil {
		fetched, err := r.lister.ListRoles(ctx, token)
		if err != nil {
			r.logger.Warn("role list unavailable; resolving role reference locally", "role_ref", ref, "error", err)
		} else {
			roles = fetched
		}
	}
	return ResolveRoleName(ref, roles)
}

// RoleLabel formats a role name for display: "admin" becomes "Admin".
func RoleLabel(name string) string {
	if name == "" {
		return "Unknown"
	}
	runes := []rune(strings.ToLower(name))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// decodeRoles normalises the /v1/roles payload. The relational backend sends
// [{id, name, enable}], the document backend sends ["Admin", "User"], and either
// may be wrapped in {"data": [...]}. String items become roles whose id is the name.
func decodeRoles(raw json.RawMessage) ([]APIRole, error) {
	items, err := unwrapList(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode roles: %w", err)
	}

	roles := make([]APIRole, 0, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case string:
			roles = append(roles, APIRole{ID: EntityID(v), Name: v, Enable: true})
		case map[string]any:
			var role APIRole
			decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
				WeaklyTypedInput: true,
				Result:           &role,
			})
			if err != nil {
				return nil, err
			}
			if err := decoder.Decode(v); err != nil {
				return nil, fmt.Errorf("failed to decode role %d: %w", i, err)
			}
			roles = append(roles, role)
		default:
			return nil, fmt.Errorf("unexpected role item %d of type %T", i, item)
		}
	}
	return roles, nil
}

// unwrapList decodes either a bare JSON array or an object with a "data" array.
func unwrapList(raw json.RawMessage) ([]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}

	switch v := decoded.(type) {
	case nil:
		return nil, nil
	case []any:
		return v, nil
	case map[string]any:
		data, ok := v["data"]
		if !ok || data == nil {
			return nil, nil
		}
		list, ok := data.([]any)
		if !ok {
			return nil, fmt.Errorf("data field is %T, not a list", data)
		}
		return list, nil
	default:
		return nil, fmt.Errorf("expected a list, got %T", decoded)
	}
}
