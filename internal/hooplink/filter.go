package hooplink

import "strings"

// Filter narrows a game listing. Zero values match everything.
type Filter struct {
	// Skill is a SkillLevel or "All"/"" for any level.
	Skill string
	// Date matches Game.Date exactly.
	Date string
	// Location is a case-insensitive substring of Game.Location.
	Location string
	// JoinedBy keeps games where this user has a roster entry.
	JoinedBy string
	// OrganizedBy keeps games hosted by this user.
	OrganizedBy string
}

func (f Filter) Match(g Game) bool {
	if f.Skill != "" && f.Skill != "All" && string(g.SkillLevel) != f.Skill {
		return false
	}
	if f.Date != "" && g.Date != f.Date {
		return false
	}
	if f.Location != "" && !strings.Contains(strings.ToLower(g.Location), strings.ToLower(f.Location)) {
		return false
	}
	if f.JoinedBy != "" && !g.HasPlayer(f.JoinedBy) {
		return false
	}
	if f.OrganizedBy != "" && g.OrganizerID != f.OrganizedBy {
		return false
	}
	return true
}
