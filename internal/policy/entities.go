package policy

import (
	"github.com/cedar-policy/cedar-go"

	"github.com/erazemk/najdeno/internal/model"
)

const (
	anonymousID = "anonymous"
	systemID    = "najdeno"

	// newItemID stands in for an item that does not exist yet (creation).
	newItemID = "new"
)

// principalUID returns the Cedar UID for id. A nil or empty identity is the
// anonymous principal.
func principalUID(id *model.Identity) cedar.EntityUID {
	if !model.Authenticated(id) {
		return cedar.NewEntityUID("Anonymous", cedar.String(anonymousID))
	}
	return cedar.NewEntityUID("User", cedar.String(id.ID))
}

// principalEntity builds the principal with its authenticated flag and roles.
// Roles come only from the identity provider.
func principalEntity(id *model.Identity) cedar.Entity {
	var roles []cedar.Value
	authenticated := model.Authenticated(id)
	if authenticated {
		for _, r := range id.Roles.Slice() {
			roles = append(roles, cedar.String(string(r)))
		}
	}

	return cedar.Entity{
		UID:     principalUID(id),
		Parents: cedar.NewEntityUIDSet(),
		Attributes: cedar.NewRecord(cedar.RecordMap{
			"authenticated": cedar.Boolean(authenticated),
			"roles":         cedar.NewSet(roles...),
		}),
	}
}

// resourceEntity builds the Cedar resource for an action. Item-scoped actions
// use the item (or a placeholder when creating); system actions use the
// singleton System entity.
func resourceEntity(action Action, item *model.Item) cedar.Entity {
	if !action.itemScoped() {
		return cedar.Entity{
			UID:        cedar.NewEntityUID("System", cedar.String(systemID)),
			Parents:    cedar.NewEntityUIDSet(),
			Attributes: cedar.NewRecord(cedar.RecordMap{}),
		}
	}

	if item == nil {
		return cedar.Entity{
			UID:        cedar.NewEntityUID("Item", cedar.String(newItemID)),
			Parents:    cedar.NewEntityUIDSet(),
			Attributes: cedar.NewRecord(cedar.RecordMap{}),
		}
	}

	return cedar.Entity{
		UID:     cedar.NewEntityUID("Item", cedar.String(item.ID)),
		Parents: cedar.NewEntityUIDSet(),
		Attributes: cedar.NewRecord(cedar.RecordMap{
			"type":   cedar.String(string(item.Type)),
			"status": cedar.String(string(item.Status)),
			"owner":  cedar.String(item.PostedBy),
		}),
	}
}

// buildRequest assembles the Cedar entities and request for one decision.
func buildRequest(id *model.Identity, action Action, item *model.Item) (cedar.EntityMap, cedar.Request) {
	principal := principalEntity(id)
	resource := resourceEntity(action, item)

	entities := cedar.EntityMap{
		principal.UID: principal,
		resource.UID:  resource,
	}

	contextMap := cedar.RecordMap{
		"is_owner": cedar.Boolean(model.IsOwner(id, item)),
	}
	if action.Target != "" {
		contextMap["target_status"] = cedar.String(string(action.Target))
	}

	return entities, cedar.Request{
		Principal: principal.UID,
		Action:    cedar.NewEntityUID("Action", cedar.String(string(action.Kind))),
		Resource:  resource.UID,
		Context:   cedar.NewRecord(contextMap),
	}
}
