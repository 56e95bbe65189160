// shared/models/team.go
package models

import (
	"slices"
	"strings"
	"time"
	"unicode"
)

// Invite is a pending offer to join a team. Expired invites are filtered out
// lazily whenever the team record is read; nothing sweeps them in the
// background, so an expired invite may occupy storage until the next read.
type Invite struct {
	PlayerUUID string    `json:"playerUuid"`
	InvitedBy  string    `json:"invitedBy"`
	IssuedAt   time.Time `json:"issuedAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Live reports whether the invite is still valid at the given time.
func (inv Invite) Live(now time.Time) bool {
	return now.Before(inv.ExpiresAt)
}

// Team is the stored record for a player team. The ID is the slugified name,
// immutable and globally unique; uniqueness is enforced at creation time via
// a check-on-absence of the team key.
type Team struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Leader     string    `json:"leader"`
	Officers   []string  `json:"officers"`
	Members    []string  `json:"members"`
	Balance    Coins     `json:"balance"`
	MaxMembers int       `json:"maxMembers"`
	Open       bool      `json:"open"` // anyone may join without an invite
	Invites    []Invite  `json:"invites,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// IsMember reports whether the player belongs to the team.
func (t *Team) IsMember(playerUUID string) bool {
	return slices.Contains(t.Members, playerUUID)
}

// IsOfficer reports whether the player holds the officer role.
func (t *Team) IsOfficer(playerUUID string) bool {
	return slices.Contains(t.Officers, playerUUID)
}

// CanManage reports whether the player may invite, kick and move team funds:
// the leader or any officer.
func (t *Team) CanManage(playerUUID string) bool {
	return t.Leader == playerUUID || t.IsOfficer(playerUUID)
}

// LiveInvites returns the invites that have not yet expired. Callers that
// write the team back should store this filtered slice so dead invites get
// dropped opportunistically.
func (t *Team) LiveInvites(now time.Time) []Invite {
	live := make([]Invite, 0, len(t.Invites))
	for _, inv := range t.Invites {
		if inv.Live(now) {
			live = append(live, inv)
		}
	}
	return live
}

// InviteFor returns the live invite addressed to the player, if any.
func (t *Team) InviteFor(playerUUID string, now time.Time) (Invite, bool) {
	for _, inv := range t.Invites {
		if inv.PlayerUUID == playerUUID && inv.Live(now) {
			return inv, true
		}
	}
	return Invite{}, false
}

// SlugifyTeamName converts a display name into the team's storage ID:
// lowercase, runs of non-alphanumerics collapsed to single dashes.
// Returns "" when nothing usable remains.
func SlugifyTeamName(name string) string {
	var b strings.Builder
	lastDash := true // suppress a leading dash
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
