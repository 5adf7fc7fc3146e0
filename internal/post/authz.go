package post

// Access checks are pure decisions over already-loaded state. Callers decide
// how a denial is surfaced; the service collapses every denial into ErrNotFound.

// CanMutate reports whether the actor may edit or delete p.
// Only the owner may mutate; an anonymous actor (empty id) never can.
func CanMutate(actorID string, p *Post) bool {
	return actorID != "" && actorID == p.OwnerID
}

// CanView reports whether the actor may read p. Published posts are visible
// to everyone including anonymous actors; drafts only to their owner.
func CanView(actorID string, p *Post) bool {
	return p.Status == StatusPublished || (actorID != "" && actorID == p.OwnerID)
}
