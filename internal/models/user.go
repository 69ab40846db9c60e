package models

import (
	"time"

	"gorm.io/gorm"
)

// Counters are the denormalized edge tallies kept on every user document.
// The same shape doubles as a delta when counters are incremented.
type Counters struct {
	FollowCount    int64 `gorm:"not null;default:0" json:"follow_count" dynamodbav:"follow_count"`
	FollowByCount  int64 `gorm:"not null;default:0" json:"follow_by_count" dynamodbav:"follow_by_count"`
	RequestCount   int64 `gorm:"not null;default:0" json:"request_count" dynamodbav:"request_count"`
	RequestByCount int64 `gorm:"not null;default:0" json:"request_by_count" dynamodbav:"request_by_count"`
	IgnoreCount    int64 `gorm:"not null;default:0" json:"ignore_count" dynamodbav:"ignore_count"`
	IgnoreByCount  int64 `gorm:"not null;default:0" json:"ignore_by_count" dynamodbav:"ignore_by_count"`
	BlockCount     int64 `gorm:"not null;default:0" json:"block_count" dynamodbav:"block_count"`
	BlockByCount   int64 `gorm:"not null;default:0" json:"block_by_count" dynamodbav:"block_by_count"`
}

// Counter column names, shared by the SQL and DynamoDB stores.
const (
	ColFollowCount    = "follow_count"
	ColFollowByCount  = "follow_by_count"
	ColRequestCount   = "request_count"
	ColRequestByCount = "request_by_count"
	ColIgnoreCount    = "ignore_count"
	ColIgnoreByCount  = "ignore_by_count"
	ColBlockCount     = "block_count"
	ColBlockByCount   = "block_by_count"
)

// Columns returns the non-zero counters keyed by column name.
func (c Counters) Columns() map[string]int64 {
	all := map[string]int64{
		ColFollowCount:    c.FollowCount,
		ColFollowByCount:  c.FollowByCount,
		ColRequestCount:   c.RequestCount,
		ColRequestByCount: c.RequestByCount,
		ColIgnoreCount:    c.IgnoreCount,
		ColIgnoreByCount:  c.IgnoreByCount,
		ColBlockCount:     c.BlockCount,
		ColBlockByCount:   c.BlockByCount,
	}
	for col, v := range all {
		if v == 0 {
			delete(all, col)
		}
	}
	return all
}

// Add returns the field-wise sum of c and d.
func (c Counters) Add(d Counters) Counters {
	return Counters{
		FollowCount:    c.FollowCount + d.FollowCount,
		FollowByCount:  c.FollowByCount + d.FollowByCount,
		RequestCount:   c.RequestCount + d.RequestCount,
		RequestByCount: c.RequestByCount + d.RequestByCount,
		IgnoreCount:    c.IgnoreCount + d.IgnoreCount,
		IgnoreByCount:  c.IgnoreByCount + d.IgnoreByCount,
		BlockCount:     c.BlockCount + d.BlockCount,
		BlockByCount:   c.BlockByCount + d.BlockByCount,
	}
}

func (c Counters) IsZero() bool {
	return c == Counters{}
}

type User struct {
	ID              string    `gorm:"primaryKey;type:varchar(64)" json:"id" dynamodbav:"id"`
	Username        string    `gorm:"type:varchar(32);uniqueIndex;not null" json:"username" dynamodbav:"username"`
	DisplayName     string    `gorm:"type:varchar(100)" json:"display_name" dynamodbav:"display_name"`
	TelegramID      *int64    `gorm:"uniqueIndex" json:"-" dynamodbav:"telegram_id,omitempty"`
	IsAccountPublic bool      `gorm:"not null" json:"is_account_public" dynamodbav:"is_account_public"`
	Counters        `gorm:"embedded"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at" dynamodbav:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at" dynamodbav:"updated_at"`
}

// BeforeCreate validates new user rows. Counter updates go through
// column expressions and never reach this hook.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Username == "" {
		return gorm.ErrInvalidData
	}
	for _, v := range []int64{
		u.FollowCount, u.FollowByCount, u.RequestCount, u.RequestByCount,
		u.IgnoreCount, u.IgnoreByCount, u.BlockCount, u.BlockByCount,
	} {
		if v < 0 {
			return gorm.ErrInvalidData
		}
	}
	return nil
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}
