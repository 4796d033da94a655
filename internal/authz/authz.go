// Package authz holds the ownership predicates consulted before mutations.
// They never return errors: anything that cannot be resolved denies.
package authz

// Actor is the authenticated caller.
type Actor interface {
	ActorID() int
	IsAdmin() bool
}

// Owned is implemented by every entity that has an owning user: a blog by
// its owner, a post by its author and a comment by its commenter. OwnerID
// returns 0 when the owner is unknown.
type Owned interface {
	OwnerID() int
}

func resolvedActor(actor Actor) (int, bool) {
	if actor == nil {
		return 0, false
	}
	id := actor.ActorID()
	return id, id != 0
}

// IsCreatorOrAdmin reports whether actor is an admin or owns obj.
func IsCreatorOrAdmin(actor Actor, obj Owned) bool {
	id, ok := resolvedActor(actor)
	if !ok {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	return isOwner(id, obj)
}

// IsBlogOwner reports whether actor owns blog. Admin rights do not count.
func IsBlogOwner(actor Actor, blog Owned) bool {
	id, ok := resolvedActor(actor)
	if !ok {
		return false
	}
	return isOwner(id, blog)
}

// CanDeletePost allows the post author, the owner of its blog and admins.
func CanDeletePost(actor Actor, post, blog Owned) bool {
	return IsCreatorOrAdmin(actor, post) || IsBlogOwner(actor, blog)
}

// CanSeeUnpublished allows admins, the post author and the blog owner to
// read a post that has not been published yet.
func CanSeeUnpublished(actor Actor, post, blog Owned) bool {
	return CanDeletePost(actor, post, blog)
}

func isOwner(id int, obj Owned) bool {
	if obj == nil {
		return false
	}
	owner := obj.OwnerID()
	return owner != 0 && owner == id
}
