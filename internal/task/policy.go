package task

// Action enumerates everything a principal can attempt on tasks. The set is
// closed: the policy is a lookup table, not a method-name convention.
type Action int

const (
	ActionViewAny Action = iota
	ActionView
	ActionCreate
	ActionUpdate
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionViewAny:
		return "view_any"
	case ActionView:
		return "view"
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	}
	return "unknown"
}

// Rule decides whether principalID may perform an action. For type-level
// actions (list, create) the task argument is nil.
type Rule func(principalID string, t *Task) bool

// Policy maps each action to its rule. Rules are pure and total: they never
// error, and absence of a principal is the caller's problem.
type Policy struct {
	rules map[Action]Rule
}

// NewPolicy returns the ownership policy: any authenticated principal may
// list and create; object-level actions require ownership.
func NewPolicy() Policy {
	anyAuthenticated := func(principalID string, _ *Task) bool {
		return principalID != ""
	}
	ownerOnly := func(principalID string, t *Task) bool {
		return principalID != "" && t != nil && t.OwnerID == principalID
	}
	return Policy{rules: map[Action]Rule{
		ActionViewAny: anyAuthenticated,
		ActionCreate:  anyAuthenticated,
		ActionView:    ownerOnly,
		ActionUpdate:  ownerOnly,
		ActionDelete:  ownerOnly,
	}}
}

// Allows evaluates the rule for the action. Unknown actions are denied.
func (p Policy) Allows(principalID string, action Action, t *Task) bool {
	rule, ok := p.rules[action]
	if !ok {
		return false
	}
	return rule(principalID, t)
}
