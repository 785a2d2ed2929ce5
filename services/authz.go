package services

import (
	"fmt"
	"log/slog"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"

	"terrainhub/models"
	"terrainhub/rules"
)

// Resource and Action name the capabilities checked by Authorizer.
type (
	Resource string
	Action   string
)

const (
	ResourceCourt   Resource = "court"
	ResourceComment Resource = "comment"
	ResourceReport  Resource = "report"
	ResourceBadge   Resource = "badge"
	ResourceShop    Resource = "shop"
	ResourcePoints  Resource = "points"
	ResourceProfile Resource = "profile"
)

const (
	ActionCreate   Action = "create"
	ActionRate     Action = "rate"
	ActionDelete   Action = "delete"
	ActionReview   Action = "review"
	ActionUnlock   Action = "unlock"
	ActionPurchase Action = "purchase"
	ActionAward    Action = "award"
	ActionUpdate   Action = "update"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

type policy struct {
	role     models.Role
	resource Resource
	action   Action
}

// Guests get no policy at all, which makes them read-only.
var defaultPolicies = []policy{
	{models.RoleUser, ResourceCourt, ActionCreate},
	{models.RoleUser, ResourceCourt, ActionRate},
	{models.RoleUser, ResourceCourt, ActionDelete},
	{models.RoleUser, ResourceComment, ActionCreate},
	{models.RoleUser, ResourceComment, ActionDelete},
	{models.RoleUser, ResourceReport, ActionCreate},
	{models.RoleUser, ResourceBadge, ActionUnlock},
	{models.RoleUser, ResourceShop, ActionPurchase},
	{models.RoleUser, ResourcePoints, ActionAward},
	{models.RoleUser, ResourceProfile, ActionUpdate},
	{models.RoleModerator, ResourceReport, ActionReview},
}

var defaultRoleLinks = [][2]models.Role{
	{models.RoleModerator, models.RoleUser},
	{models.RoleAdmin, models.RoleModerator},
}

// Authorizer is the role capability gate applied inside every mutating service call.
type Authorizer struct {
	enforcer *casbin.SyncedEnforcer
}

// NewAuthorizer builds the enforcer. A nil adapter keeps policies in memory;
// otherwise stored policies are loaded and the defaults merged in.
func NewAuthorizer(adapter persist.Adapter) (*Authorizer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create Casbin model: %w", err)
	}

	var e *casbin.SyncedEnforcer
	if adapter != nil {
		e, err = casbin.NewSyncedEnforcer(m, adapter)
	} else {
		e, err = casbin.NewSyncedEnforcer(m)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Casbin enforcer: %w", err)
	}

	if err := ensureDefaultPolicies(e); err != nil {
		return nil, err
	}
	if adapter != nil {
		if err := e.SavePolicy(); err != nil {
			slog.Warn("failed to save casbin policies", "error", err)
		}
	}
	return &Authorizer{enforcer: e}, nil
}

func ensureDefaultPolicies(e *casbin.SyncedEnforcer) error {
	for _, p := range defaultPolicies {
		ok, err := e.HasPolicy(string(p.role), string(p.resource), string(p.action))
		if err != nil {
			return err
		}
		if !ok {
			if _, err := e.AddPolicy(string(p.role), string(p.resource), string(p.action)); err != nil {
				return fmt.Errorf("add policy %v: %w", p, err)
			}
		}
	}
	for _, link := range defaultRoleLinks {
		ok, err := e.HasGroupingPolicy(string(link[0]), string(link[1]))
		if err != nil {
			return err
		}
		if !ok {
			if _, err := e.AddGroupingPolicy(string(link[0]), string(link[1])); err != nil {
				return fmt.Errorf("add role link %v: %w", link, err)
			}
		}
	}
	return nil
}

// Check returns rules.ErrPermission unless the principal's role may perform action on resource.
func (a *Authorizer) Check(p models.Principal, resource Resource, action Action) error {
	if p.Email == "" {
		return fmt.Errorf("%w: not authenticated", rules.ErrPermission)
	}
	role := p.Role
	if role == "" {
		role = models.RoleUser
	}
	allowed, err := a.enforcer.Enforce(string(role), string(resource), string(action))
	if err != nil {
		return fmt.Errorf("permission check failed: %w", err)
	}
	if !allowed {
		return fmt.Errorf("%w: %s may not %s %s", rules.ErrPermission, role, action, resource)
	}
	return nil
}
