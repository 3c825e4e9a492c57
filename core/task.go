package core

import (
	"sync/atomic"
	"time"

	"github.com/rs/xid"
)

// Task is one delivery request from one chat message. Tasks are ephemeral:
// they live in memory for the duration of the request and are gone after the
// outcome has been reported.
type Task struct {
	ID             string
	ChatID         int64
	Link           string
	ReplyChatID    int64
	ReplyMessageID int

	startedAt       time.Time
	downloadedBytes atomic.Int64
	totalBytes      atomic.Int64
}

func NewTask(chatID int64, link string, replyChatID int64, replyMessageID int) *Task {
	return &Task{
		ID:             xid.New().String(),
		ChatID:         chatID,
		Link:           link,
		ReplyChatID:    replyChatID,
		ReplyMessageID: replyMessageID,
	}
}

func (t *Task) DownloadedBytes() int64 {
	return t.downloadedBytes.Load()
}

func (t *Task) TotalBytes() int64 {
	return t.totalBytes.Load()
}

func (t *Task) StartedAt() time.Time {
	return t.startedAt
}
