package models

import (
	"fmt"
	"time"
)

type RelationshipStatus string

// Relationship status constants
const (
	StatusNone    RelationshipStatus = "none"
	StatusRequest RelationshipStatus = "request"
	StatusFollow  RelationshipStatus = "follow"
	StatusIgnore  RelationshipStatus = "ignore"
	StatusBlock   RelationshipStatus = "block"
)

func (s RelationshipStatus) Valid() bool {
	switch s {
	case StatusNone, StatusRequest, StatusFollow, StatusIgnore, StatusBlock:
		return true
	}
	return false
}

// EdgeKey addresses the directed edge Source -> Target.
type EdgeKey struct {
	SourceID string
	TargetID string
}

func (k EdgeKey) Inverse() EdgeKey {
	return EdgeKey{SourceID: k.TargetID, TargetID: k.SourceID}
}

func (k EdgeKey) String() string {
	return fmt.Sprintf("%s->%s", k.SourceID, k.TargetID)
}

// Relationship is the directed edge document. An absent row means StatusNone.
// Version is maintained by the stores: zero for an edge that has never been
// persisted, bumped on every write.
type Relationship struct {
	SourceID  string             `gorm:"primaryKey;type:varchar(64)" json:"source_id" dynamodbav:"source_id"`
	TargetID  string             `gorm:"primaryKey;type:varchar(64);index" json:"target_id" dynamodbav:"target_id"`
	Status    RelationshipStatus `gorm:"type:varchar(10);not null;index" json:"status" dynamodbav:"status"`
	IsBlocked bool               `gorm:"not null" json:"is_blocked" dynamodbav:"is_blocked"`
	Version   int64              `gorm:"not null" json:"-" dynamodbav:"version"`
	UpdatedAt time.Time          `gorm:"autoUpdateTime:false" json:"updated_at" dynamodbav:"updated_at"`
}

// NewRelationship returns the implicit none edge for key.
func NewRelationship(key EdgeKey) *Relationship {
	return &Relationship{SourceID: key.SourceID, TargetID: key.TargetID, Status: StatusNone}
}

func (r *Relationship) Key() EdgeKey {
	return EdgeKey{SourceID: r.SourceID, TargetID: r.TargetID}
}

func (r *Relationship) Exists() bool {
	return r.Version > 0
}

func (Relationship) TableName() string {
	return "relationships"
}

// Shift returns the counter deltas for the source and target users when an
// edge moves between statuses. Each status owns one counter on each side;
// the move releases the old pair and claims the new one.
func Shift(from, to RelationshipStatus) (source, target Counters) {
	if from == to {
		return
	}
	source.bump(from, -1, true)
	target.bump(from, -1, false)
	source.bump(to, 1, true)
	target.bump(to, 1, false)
	return
}

func (c *Counters) bump(s RelationshipStatus, n int64, isSource bool) {
	switch s {
	case StatusRequest:
		if isSource {
			c.RequestCount += n
		} else {
			c.RequestByCount += n
		}
	case StatusFollow:
		if isSource {
			c.FollowCount += n
		} else {
			c.FollowByCount += n
		}
	case StatusIgnore:
		// the requester is ignored by the responder
		if isSource {
			c.IgnoreByCount += n
		} else {
			c.IgnoreCount += n
		}
	case StatusBlock:
		if isSource {
			c.BlockCount += n
		} else {
			c.BlockByCount += n
		}
	}
}

// CountEdges derives userID's counters from scratch over edges touching it.
// Edges not incident to userID are skipped.
func CountEdges(userID string, edges []Relationship) Counters {
	var c Counters
	for _, e := range edges {
		source, target := Shift(StatusNone, e.Status)
		if e.SourceID == userID {
			c = c.Add(source)
		}
		if e.TargetID == userID {
			c = c.Add(target)
		}
	}
	return c
}
