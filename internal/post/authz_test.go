package post

import "testing"

func TestCanMutate(t *testing.T) {
	p := &Post{ID: "p1", OwnerID: "owner"}

	tests := []struct {
		name    string
		actorID string
		want    bool
	}{
		{"owner", "owner", true},
		{"other user", "intruder", false},
		{"anonymous", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanMutate(tt.actorID, p); got != tt.want {
				t.Errorf("CanMutate(%q) = %v, want %v", tt.actorID, got, tt.want)
			}
		})
	}
}

func TestCanView(t *testing.T) {
	tests := []struct {
		name    string
		actorID string
		status  Status
		want    bool
	}{
		{"anyone reads published", "stranger", StatusPublished, true},
		{"anonymous reads published", "", StatusPublished, true},
		{"owner reads own draft", "owner", StatusDraft, true},
		{"stranger blocked from draft", "stranger", StatusDraft, false},
		{"anonymous blocked from draft", "", StatusDraft, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Post{ID: "p1", OwnerID: "owner", Status: tt.status}
			if got := CanView(tt.actorID, p); got != tt.want {
				t.Errorf("CanView(%q, %s) = %v, want %v", tt.actorID, tt.status, got, tt.want)
			}
		})
	}
}

// An empty owner id on a loaded post must never match an anonymous actor.
func TestCanMutate_EmptyOwnerNeverMatchesAnonymous(t *testing.T) {
	p := &Post{ID: "p1", OwnerID: ""}
	if CanMutate("", p) {
		t.Error("anonymous actor allowed to mutate a post with empty owner")
	}
}
