package admission

import (
	"context"
	"testing"
	"time"

	"github.com/ryoka/teragrab-bot/config"
	"github.com/ryoka/teragrab-bot/database"
	"github.com/ryoka/teragrab-bot/pkg/enums/tier"
	"github.com/ryoka/teragrab-bot/pkg/queue"
)

func setupTest(t *testing.T) {
	t.Helper()
	config.SetForTest(&config.Config{
		Quota: config.QuotaConfig{
			FreeDaily:       5,
			PremiumDaily:    50,
			FreeDelayFactor: 3,
			HistoryLimit:    50,
		},
	})
	if err := database.InitForTest(context.Background()); err != nil {
		t.Fatalf("failed to init test database: %v", err)
	}
}

func newTestController(at time.Time) *Controller {
	c := NewController()
	c.now = func() time.Time { return at }
	return c
}

func TestAdmitFreeUserUpToQuota(t *testing.T) {
	setupTest(t)
	ctx := context.Background()
	if err := database.CreateUser(ctx, 1, "free", "freeuser"); err != nil {
		t.Fatal(err)
	}

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	c := newTestController(now)

	for i := 0; i < 5; i++ {
		d, err := c.Admit(ctx, 1)
		if err != nil {
			t.Fatalf("Admit %d: %v", i, err)
		}
		if !d.Allowed {
			t.Fatalf("Admit %d: denied with %d/%d used", i, d.Used, d.Limit)
		}
		if d.Tier != tier.Free {
			t.Errorf("Tier = %v, want free", d.Tier)
		}
		if d.Priority != queue.PriorityLow {
			t.Errorf("Priority = %v, want low", d.Priority)
		}
		if d.DelayFactor != 3 {
			t.Errorf("DelayFactor = %d, want 3", d.DelayFactor)
		}
		if err := c.RecordSuccess(ctx, 1, "f.mp4", 1<<20, "direct"); err != nil {
			t.Fatalf("RecordSuccess %d: %v", i, err)
		}
	}

	d, err := c.Admit(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if d.Allowed {
		t.Error("sixth request admitted, want denial")
	}
	if d.Used != 5 || d.Limit != 5 {
		t.Errorf("Used/Limit = %d/%d, want 5/5", d.Used, d.Limit)
	}
	if d.Remaining() != 0 {
		t.Errorf("Remaining = %d, want 0", d.Remaining())
	}
}

func TestAdmitPremiumUser(t *testing.T) {
	setupTest(t)
	ctx := context.Background()
	if err := database.CreateUser(ctx, 2, "prem", "premuser"); err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	if err := database.SetPremiumUntil(ctx, 2, now.Add(24*time.Hour)); err != nil {
		t.Fatal(err)
	}

	c := newTestController(now)
	d, err := c.Admit(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Allowed {
		t.Fatal("premium user denied")
	}
	if d.Tier != tier.Premium {
		t.Errorf("Tier = %v, want premium", d.Tier)
	}
	if d.Priority != queue.PriorityHigh {
		t.Errorf("Priority = %v, want high", d.Priority)
	}
	if d.DelayFactor != 1 {
		t.Errorf("DelayFactor = %d, want 1", d.DelayFactor)
	}
	if d.Limit != 50 {
		t.Errorf("Limit = %d, want 50", d.Limit)
	}
}

func TestPremiumExpiryDowngrades(t *testing.T) {
	setupTest(t)
	ctx := context.Background()
	if err := database.CreateUser(ctx, 3, "exp", "expired"); err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	if err := database.SetPremiumUntil(ctx, 3, now.Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}

	d, err := newTestController(now).Admit(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if d.Tier != tier.Free {
		t.Errorf("Tier = %v, want free after expiry", d.Tier)
	}
	if d.Priority != queue.PriorityLow || d.Limit != 5 {
		t.Errorf("expired premium kept premium treatment: priority=%v limit=%d", d.Priority, d.Limit)
	}
}

func TestLazyMidnightReset(t *testing.T) {
	setupTest(t)
	ctx := context.Background()
	if err := database.CreateUser(ctx, 4, "reset", "resetuser"); err != nil {
		t.Fatal(err)
	}

	day1 := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	c := newTestController(day1)
	for i := 0; i < 5; i++ {
		if _, err := c.Admit(ctx, 4); err != nil {
			t.Fatal(err)
		}
		if err := c.RecordSuccess(ctx, 4, "f.mp4", 1024, "direct"); err != nil {
			t.Fatal(err)
		}
	}
	if d, _ := c.Admit(ctx, 4); d.Allowed {
		t.Fatal("expected denial before midnight")
	}

	// One minute past UTC midnight the quota is fresh again.
	day2 := time.Date(2026, 3, 11, 0, 1, 0, 0, time.UTC)
	c.now = func() time.Time { return day2 }
	d, err := c.Admit(ctx, 4)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Allowed {
		t.Fatalf("expected admission after reset, used=%d", d.Used)
	}
	if d.Used != 0 {
		t.Errorf("Used = %d after reset, want 0", d.Used)
	}
	wantReset := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	if !d.ResetAt.Equal(wantReset) {
		t.Errorf("ResetAt = %v, want %v", d.ResetAt, wantReset)
	}

	// The reset happened once; repeated admits within the same day do not
	// wipe the counter again.
	if err := c.RecordSuccess(ctx, 4, "g.mp4", 1024, "direct"); err != nil {
		t.Fatal(err)
	}
	d2, err := c.Admit(ctx, 4)
	if err != nil {
		t.Fatal(err)
	}
	if d2.Used != 1 {
		t.Errorf("Used = %d after one post-reset success, want 1", d2.Used)
	}
}

func TestAdmitDoesNotConsumeQuota(t *testing.T) {
	setupTest(t)
	ctx := context.Background()
	if err := database.CreateUser(ctx, 5, "peek", "peekuser"); err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	c := newTestController(now)

	for i := 0; i < 10; i++ {
		d, err := c.Admit(ctx, 5)
		if err != nil {
			t.Fatal(err)
		}
		if !d.Allowed || d.Used != 0 {
			t.Fatalf("admit %d without success changed quota: allowed=%v used=%d", i, d.Allowed, d.Used)
		}
	}
}

func TestPeekAppliesResetToViewOnly(t *testing.T) {
	setupTest(t)
	ctx := context.Background()
	if err := database.CreateUser(ctx, 6, "view", "viewuser"); err != nil {
		t.Fatal(err)
	}
	day1 := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	c := newTestController(day1)
	if _, err := c.Admit(ctx, 6); err != nil {
		t.Fatal(err)
	}
	if err := c.RecordSuccess(ctx, 6, "f.mp4", 1024, "direct"); err != nil {
		t.Fatal(err)
	}

	day2 := day1.Add(24 * time.Hour)
	c.now = func() time.Time { return day2 }
	d, err := c.Peek(ctx, 6)
	if err != nil {
		t.Fatal(err)
	}
	if d.Used != 0 {
		t.Errorf("Peek Used = %d past midnight, want 0", d.Used)
	}

	// The stored row is untouched until the next Admit.
	u, err := database.GetUserByChatID(ctx, 6)
	if err != nil {
		t.Fatal(err)
	}
	if u.DownloadsToday != 1 {
		t.Errorf("stored DownloadsToday = %d, want 1 (peek must not write)", u.DownloadsToday)
	}
}
