// Package admission decides whether a delivery request may proceed and with
// what scheduling class. Decisions are made against persisted per-user quota
// state so they survive restarts; nothing here talks to the network.
package admission

import (
	"context"
	"time"

	"github.com/ryoka/teragrab-bot/config"
	"github.com/ryoka/teragrab-bot/database"
	"github.com/ryoka/teragrab-bot/pkg/enums/tier"
	"github.com/ryoka/teragrab-bot/pkg/queue"
)

// Decision is the outcome of admitting one delivery request. When Allowed is
// false the request must not consume any network or worker resources.
type Decision struct {
	Allowed     bool
	Tier        tier.Tier
	Priority    queue.Priority
	DelayFactor int
	Used        int
	Limit       int
	ResetAt     time.Time
}

func (d *Decision) Remaining() int {
	if r := d.Limit - d.Used; r > 0 {
		return r
	}
	return 0
}

type Controller struct {
	now func() time.Time
}

func NewController() *Controller {
	return &Controller{now: time.Now}
}

// Admit evaluates the user's quota, applying the lazy daily reset first. The
// reset and the evaluation happen in one transaction, so a request arriving
// exactly at the boundary cannot observe a half-reset row. Admission does not
// consume quota; only a recorded success does.
func (c *Controller) Admit(ctx context.Context, chatID int64) (*Decision, error) {
	now := c.now().UTC()
	var d Decision
	_, err := database.MutateUser(ctx, chatID, func(u *database.User) error {
		if !now.Before(u.QuotaResetAt) {
			u.DownloadsToday = 0
			u.QuotaResetAt = nextMidnightUTC(now)
		}
		d = c.evaluate(u, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Controller) evaluate(u *database.User, now time.Time) Decision {
	userTier := u.EffectiveTier(now)
	q := config.C().Quota
	d := Decision{
		Tier:        userTier,
		Priority:    queue.PriorityLow,
		DelayFactor: q.FreeDelayFactor,
		Used:        u.DownloadsToday,
		Limit:       q.FreeDaily,
		ResetAt:     u.QuotaResetAt,
	}
	if userTier == tier.Premium {
		d.Priority = queue.PriorityHigh
		d.DelayFactor = 1
		d.Limit = q.PremiumDaily
	}
	d.Allowed = d.Used < d.Limit
	return d
}

// Peek reports the current quota standing without touching stored state. The
// daily reset is applied to the returned view only, so a user checking their
// status after midnight sees a fresh counter even though the row is reset
// lazily on the next admit.
func (c *Controller) Peek(ctx context.Context, chatID int64) (*Decision, error) {
	u, err := database.GetUserByChatID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	now := c.now().UTC()
	view := *u
	if !now.Before(view.QuotaResetAt) {
		view.DownloadsToday = 0
		view.QuotaResetAt = nextMidnightUTC(now)
	}
	d := c.evaluate(&view, now)
	return &d, nil
}

// RecordSuccess charges one download against the quota and appends it to the
// user's bounded history. Failed and cancelled deliveries never reach here.
func (c *Controller) RecordSuccess(ctx context.Context, chatID int64, fileName string, sizeBytes int64, kind string) error {
	return database.RecordDownload(ctx, chatID, database.HistoryRecord{
		FileName:  fileName,
		SizeBytes: sizeBytes,
		Kind:      kind,
	}, config.C().Quota.HistoryLimit)
}

func nextMidnightUTC(now time.Time) time.Time {
	return now.Truncate(24 * time.Hour).Add(24 * time.Hour)
}
