package models

import (
	"testing"
)

func TestShift(t *testing.T) {
	tests := []struct {
		name       string
		from, to   RelationshipStatus
		wantSource Counters
		wantTarget Counters
	}{
		{
			name:       "None to follow",
			from:       StatusNone,
			to:         StatusFollow,
			wantSource: Counters{FollowCount: 1},
			wantTarget: Counters{FollowByCount: 1},
		},
		{
			name:       "None to request",
			from:       StatusNone,
			to:         StatusRequest,
			wantSource: Counters{RequestCount: 1},
			wantTarget: Counters{RequestByCount: 1},
		},
		{
			name:       "Request to follow",
			from:       StatusRequest,
			to:         StatusFollow,
			wantSource: Counters{RequestCount: -1, FollowCount: 1},
			wantTarget: Counters{RequestByCount: -1, FollowByCount: 1},
		},
		{
			name:       "Request to ignore",
			from:       StatusRequest,
			to:         StatusIgnore,
			wantSource: Counters{RequestCount: -1, IgnoreByCount: 1},
			wantTarget: Counters{RequestByCount: -1, IgnoreCount: 1},
		},
		{
			name:       "Follow to block",
			from:       StatusFollow,
			to:         StatusBlock,
			wantSource: Counters{FollowCount: -1, BlockCount: 1},
			wantTarget: Counters{FollowByCount: -1, BlockByCount: 1},
		},
		{
			name:       "Block to none",
			from:       StatusBlock,
			to:         StatusNone,
			wantSource: Counters{BlockCount: -1},
			wantTarget: Counters{BlockByCount: -1},
		},
		{
			name: "Unchanged",
			from: StatusFollow,
			to:   StatusFollow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, target := Shift(tt.from, tt.to)
			if source != tt.wantSource {
				t.Errorf("Shift() source = %+v, want %+v", source, tt.wantSource)
			}
			if target != tt.wantTarget {
				t.Errorf("Shift() target = %+v, want %+v", target, tt.wantTarget)
			}
		})
	}
}

func TestRelationshipStatus_Valid(t *testing.T) {
	for _, s := range []RelationshipStatus{StatusNone, StatusRequest, StatusFollow, StatusIgnore, StatusBlock} {
		if !s.Valid() {
			t.Errorf("%q.Valid() = false, want true", s)
		}
	}
	if RelationshipStatus("friend").Valid() {
		t.Error(`"friend".Valid() = true, want false`)
	}
}

func TestEdgeKey_Inverse(t *testing.T) {
	k := EdgeKey{SourceID: "a", TargetID: "b"}
	inv := k.Inverse()
	if inv.SourceID != "b" || inv.TargetID != "a" {
		t.Errorf("Inverse() = %v, want b->a", inv)
	}
	if NewRelationship(k).Exists() {
		t.Error("NewRelationship().Exists() = true, want false")
	}
}

func TestCountEdges(t *testing.T) {
	edges := []Relationship{
		{SourceID: "a", TargetID: "b", Status: StatusFollow},
		{SourceID: "b", TargetID: "a", Status: StatusRequest},
		{SourceID: "c", TargetID: "a", Status: StatusIgnore},
		{SourceID: "a", TargetID: "d", Status: StatusBlock},
		{SourceID: "a", TargetID: "e", Status: StatusNone},
		{SourceID: "c", TargetID: "d", Status: StatusFollow},
	}

	want := Counters{
		FollowCount:    1,
		RequestByCount: 1,
		IgnoreCount:    1,
		BlockCount:     1,
	}
	if got := CountEdges("a", edges); got != want {
		t.Errorf("CountEdges(a) = %+v, want %+v", got, want)
	}

	wantD := Counters{BlockByCount: 1, FollowByCount: 1}
	if got := CountEdges("d", edges); got != wantD {
		t.Errorf("CountEdges(d) = %+v, want %+v", got, wantD)
	}
}
