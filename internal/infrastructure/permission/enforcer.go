// Package permission implements the authorization oracle: casbin
// policies mapping groups to (action, doctype) grants, persisted in the
// same database as the rest of the schema.
package permission

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/casbin/casbin/v2"
	casbinModel "github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

// anyDoctype matches grants that are not doctype-scoped.
const anyDoctype = "*"

// The model is fixed: subjects are group names, objects are action
// names, and the third term scopes by doctype.
const modelText = `
[request_definition]
r = sub, act, doctype

[policy_definition]
p = sub, act, doctype

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.act == p.act && (p.doctype == "*" || r.doctype == p.doctype)
`

type Enforcer struct {
	enforcer *casbin.Enforcer
	mu       sync.RWMutex
	logger   *slog.Logger
}

func NewEnforcer(db *gorm.DB, logger *slog.Logger) (*Enforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin adapter: %w", err)
	}

	m, err := casbinModel.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse casbin model: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}

	return &Enforcer{enforcer: enforcer, logger: logger}, nil
}

// Enforce decides whether a user may perform an action, optionally
// scoped by doctype. An empty doctype matches only unscoped grants.
func (e *Enforcer) Enforce(userName, action, doctype string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if doctype == "" {
		doctype = anyDoctype
	}
	allowed, err := e.enforcer.Enforce(userName, action, doctype)
	if err != nil {
		e.logger.Error("permission check failed", "user", userName, "action", action,
			"doctype", doctype, "error", err)
		return false, fmt.Errorf("permission check failed: %w", err)
	}
	return allowed, nil
}

// Grant adds one group -> (action, doctype) policy. Pass "*" to leave
// the grant unscoped.
func (e *Enforcer) Grant(group, action, doctype string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if doctype == "" {
		doctype = anyDoctype
	}
	if _, err := e.enforcer.AddPolicy(group, action, doctype); err != nil {
		return fmt.Errorf("failed to add policy: %w", err)
	}
	return e.enforcer.SavePolicy()
}

// AddMember puts a user in a group for policy resolution.
func (e *Enforcer) AddMember(userName, group string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.enforcer.AddGroupingPolicy(userName, group); err != nil {
		return fmt.Errorf("failed to add group membership: %w", err)
	}
	return e.enforcer.SavePolicy()
}
