package publishing

import "github.com/klass-lk/reviewpress/internal/model"

// noStatus is the table key for "caller did not ask for a status".
const noStatus model.Status = ""

// statusRules maps (role, requested status) to the stored status.
// Roles missing from the table cannot submit at all.
var statusRules = map[model.Role]map[model.Status]model.Status{
	model.RoleAdmin: {
		noStatus:              model.StatusPublished,
		model.StatusDraft:     model.StatusDraft,
		model.StatusReview:    model.StatusReview,
		model.StatusPublished: model.StatusPublished,
	},
	model.RoleEditor: {
		noStatus:              model.StatusDraft,
		model.StatusDraft:     model.StatusDraft,
		model.StatusReview:    model.StatusReview,
		model.StatusPublished: model.StatusReview,
	},
}

// DeriveStatus returns the workflow status a new post gets. ok is false when the
// role may not submit or the requested status is not one of the known states.
func DeriveStatus(role model.Role, requested model.Status) (status model.Status, ok bool) {
	rules, ok := statusRules[role]
	if !ok {
		return "", false
	}
	status, ok = rules[requested]
	return status, ok
}
