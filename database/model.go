package database

import (
	"time"

	"github.com/ryoka/teragrab-bot/pkg/enums/tier"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	ChatID    int64 `gorm:"uniqueIndex;not null"`
	FirstName string
	Username  string

	// Premium access is an expiry timestamp, not a flag. The effective tier
	// is computed at read time so an expired grant downgrades immediately.
	PremiumUntil time.Time

	DownloadsToday int
	QuotaResetAt   time.Time

	// ForwardChatID is the premium user's own channel for auto-forwarding
	// delivered files. Zero means disabled.
	ForwardChatID int64
	Silent        bool

	History []HistoryRecord
}

type HistoryRecord struct {
	gorm.Model
	UserID    uint `gorm:"index"`
	FileName  string
	SizeBytes int64
	Kind      string
}

func (u *User) EffectiveTier(now time.Time) tier.Tier {
	if u.PremiumUntil.After(now) {
		return tier.Premium
	}
	return tier.Free
}
