package database

import (
	"context"
	"fmt"
	"testing"
)

func TestRecordDownloadBoundedHistory(t *testing.T) {
	ctx := context.Background()
	if err := InitForTest(ctx); err != nil {
		t.Fatalf("failed to init test database: %v", err)
	}
	if err := CreateUser(ctx, 1001, "test", "tester"); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	const maxEntries = 3
	for i := 0; i < 5; i++ {
		rec := HistoryRecord{
			FileName:  fmt.Sprintf("file_%d.mp4", i),
			SizeBytes: int64(i+1) * 1024,
			Kind:      "direct",
		}
		if err := RecordDownload(ctx, 1001, rec, maxEntries); err != nil {
			t.Fatalf("RecordDownload %d failed: %v", i, err)
		}
	}

	user, err := GetUserByChatID(ctx, 1001)
	if err != nil {
		t.Fatalf("failed to get user: %v", err)
	}
	if user.DownloadsToday != 5 {
		t.Errorf("DownloadsToday = %d, want 5", user.DownloadsToday)
	}

	records, err := GetHistory(ctx, 1001, 10)
	if err != nil {
		t.Fatalf("failed to get history: %v", err)
	}
	if len(records) != maxEntries {
		t.Fatalf("history length = %d, want %d", len(records), maxEntries)
	}
	// Newest first; oldest entries (file_0, file_1) must have been evicted.
	if records[0].FileName != "file_4.mp4" {
		t.Errorf("newest record = %s, want file_4.mp4", records[0].FileName)
	}
	if records[len(records)-1].FileName != "file_2.mp4" {
		t.Errorf("oldest kept record = %s, want file_2.mp4", records[len(records)-1].FileName)
	}
}

func TestMutateUserPersists(t *testing.T) {
	ctx := context.Background()
	if err := InitForTest(ctx); err != nil {
		t.Fatalf("failed to init test database: %v", err)
	}
	if err := CreateUser(ctx, 2002, "a", "b"); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	_, err := MutateUser(ctx, 2002, func(u *User) error {
		u.DownloadsToday = 7
		return nil
	})
	if err != nil {
		t.Fatalf("MutateUser failed: %v", err)
	}

	user, err := GetUserByChatID(ctx, 2002)
	if err != nil {
		t.Fatalf("failed to get user: %v", err)
	}
	if user.DownloadsToday != 7 {
		t.Errorf("DownloadsToday = %d, want 7", user.DownloadsToday)
	}
}
