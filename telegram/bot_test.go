package telegram

import (
	"testing"

	"github.com/mroshb/moodgram/internal/handlers"
	"github.com/mroshb/moodgram/internal/relationship"
)

func TestRouteText(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantCommand string
		wantArgs    string
		wantOK      bool
	}{
		{"Requests button", handlers.BtnRequests, "requests", "", true},
		{"Profile button", handlers.BtnProfile, "me", "", true},
		{"Private button", handlers.BtnPrivate, "private", "", true},
		{"Public button", handlers.BtnPublic, "public", "", true},
		{"Help button with ZWNJ", "\u200c" + handlers.BtnHelp, "help", "", true},
		{"Bare follow", "Follow @bob", "follow", "@bob", true},
		{"Bare block", "block alice", "block", "alice", true},
		{"Unknown verb", "poke @bob", "", "", false},
		{"Too many words", "follow @bob now", "", "", false},
		{"Empty", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			command, args, ok := routeText(tt.text)
			if command != tt.wantCommand || args != tt.wantArgs || ok != tt.wantOK {
				t.Errorf("routeText(%q) = %q, %q, %v, want %q, %q, %v",
					tt.text, command, args, ok, tt.wantCommand, tt.wantArgs, tt.wantOK)
			}
		})
	}
}

func TestCommandAction(t *testing.T) {
	tests := []struct {
		command string
		want    relationship.Action
		wantOK  bool
	}{
		{"follow", relationship.ActionFollow, true},
		{"unfollow", relationship.ActionUnfollow, true},
		{"block", relationship.ActionBlock, true},
		{"unblock", relationship.ActionUnblock, true},
		{"approve", 0, false},
		{"start", 0, false},
	}

	for _, tt := range tests {
		got, ok := commandAction(tt.command)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("commandAction(%q) = %v, %v, want %v, %v", tt.command, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestWorkerIndex(t *testing.T) {
	tests := []struct {
		userID int64
		want   int
	}{
		{0, 0},
		{7, 7},
		{23, 3},
		{-23, 3},
	}

	for _, tt := range tests {
		if got := workerIndex(tt.userID, 10); got != tt.want {
			t.Errorf("workerIndex(%d, 10) = %d, want %d", tt.userID, got, tt.want)
		}
	}
}
