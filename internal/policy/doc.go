// Package policy decides who may do what to an item and which item fields a
// viewer may see.
//
// Permissions are Cedar policies (policies.cedar, embedded at build time)
// evaluated by github.com/cedar-policy/cedar-go. The lifecycle graph is not
// part of the Cedar policy set: CanPerform for a status change also requires
// the target to be a successor of the item's current status.
//
// Outward item representations are built only here. ItemView hides the
// sensitive fields (contact info and creation time) unless the viewer owns the
// item or is an administrator, and a hidden field is omitted from JSON rather
// than written as null.
package policy
