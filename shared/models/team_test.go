package models

import (
	"testing"
	"time"
)

func TestSlugifyTeamName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Dragon Slayers", "dragon-slayers"},
		{"  The   Reds  ", "the-reds"},
		{"UPPER", "upper"},
		{"a!!b??c", "a-b-c"},
		{"crew#42", "crew-42"},
		{"---", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := SlugifyTeamName(tc.in); got != tc.want {
			t.Errorf("SlugifyTeamName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTeamRoles(t *testing.T) {
	team := &Team{
		Leader:   "lead",
		Officers: []string{"off"},
		Members:  []string{"lead", "off", "plain"},
	}

	if !team.IsMember("plain") || team.IsMember("stranger") {
		t.Fatal("membership checks wrong")
	}
	if !team.CanManage("lead") || !team.CanManage("off") {
		t.Fatal("leader and officers must be able to manage")
	}
	if team.CanManage("plain") {
		t.Fatal("plain members must not be able to manage")
	}
}

func TestInviteExpiry(t *testing.T) {
	now := time.Now()
	team := &Team{
		Invites: []Invite{
			{PlayerUUID: "fresh", ExpiresAt: now.Add(time.Minute)},
			{PlayerUUID: "stale", ExpiresAt: now.Add(-time.Minute)},
		},
	}

	live := team.LiveInvites(now)
	if len(live) != 1 || live[0].PlayerUUID != "fresh" {
		t.Fatalf("live invites = %v", live)
	}

	if _, ok := team.InviteFor("fresh", now); !ok {
		t.Fatal("fresh invite should be found")
	}
	if _, ok := team.InviteFor("stale", now); ok {
		t.Fatal("expired invite must not be usable")
	}
}
