package cache

// Cache keys are composed of the resource type, the scoping identifiers and
// the page cursor, separated so that Invalidate can target a whole resource
// by prefix.

// TimelineKey identifies one cached timeline page for a user.
func TimelineKey(userID, cursor string) string {
	return "timeline|" + userID + "|" + cursor
}

// AllTimelinesPrefix covers timeline pages for all users; used when a new
// post must become visible to everyone.
func AllTimelinesPrefix() string {
	return "timeline|"
}

// DMKey identifies one cached DM-thread page.
func DMKey(userID, npcID, cursor string) string {
	return "dm|" + userID + "|" + npcID + "|" + cursor
}

// DMPrefix covers every cached page of one conversation.
func DMPrefix(userID, npcID string) string {
	return "dm|" + userID + "|" + npcID + "|"
}

// PlayerDMPrefix covers every cached DM page for a player, across NPCs.
func PlayerDMPrefix(userID string) string {
	return "dm|" + userID + "|"
}
