package sdk

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-bexpr"
	lru "github.com/hashicorp/golang-lru/v2"
)

const filterCacheSize = 64

// filterCache holds compiled evaluators keyed by expression.
var filterCache, _ = lru.New[string, *bexpr.Evaluator](filterCacheSize)

// FilterUsers returns the users matching a go-bexpr expression such as
// `enable == true and role_id == "3"`. An empty expression matches everyone.
func FilterUsers(users []APIUser, expr string) ([]APIUser, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return users, nil
	}

	evaluator, err := compileFilter(expr)
	if err != nil {
		return nil, err
	}

	matched := make([]APIUser, 0, len(users))
	for i := range users {
		ok, err := evaluator.Evaluate(userFields(&users[i]))
		if err != nil {
			return nil, fmt.Errorf("evaluate filter for user %s: %w", users[i].ID, err)
		}
		if ok {
			matched = append(matched, users[i])
		}
	}
	return matched, nil
}

func compileFilter(expr string) (*bexpr.Evaluator, error) {
	if evaluator, ok := filterCache.Get(expr); ok {
		return evaluator, nil
	}
	evaluator, err := bexpr.CreateEvaluator(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", expr, err)
	}
	filterCache.Add(expr, evaluator)
	return evaluator, nil
}

// userFields is the selector namespace exposed to filter expressions.
func userFields(u *APIUser) map[string]any {
	return map[string]any{
		"id":              u.ID.String(),
		"username":        u.Username,
		"email":           u.Email,
		"role_id":         u.RoleID.String(),
		"role":            u.Role,
		"first_name":      u.FirstName,
		"last_name":       u.LastName,
		"enable":          u.Enable,
		"verified":        u.Verified,
		"email_confirmed": u.EmailConfirmed,
		"phone_confirmed": u.PhoneConfirmed,
	}
}
