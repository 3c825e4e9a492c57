package database

import (
	"context"

	"gorm.io/gorm"
)

// RecordDownload increments the user's daily counter and appends a history
// record as one transaction. History is bounded: when maxEntries is exceeded
// the oldest records are evicted first.
func RecordDownload(ctx context.Context, chatID int64, rec HistoryRecord, maxEntries int) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user User
		if err := tx.Where("chat_id = ?", chatID).First(&user).Error; err != nil {
			return err
		}
		user.DownloadsToday++
		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		rec.UserID = user.ID
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		return evictOldHistory(tx, user.ID, maxEntries)
	})
}

func evictOldHistory(tx *gorm.DB, userID uint, maxEntries int) error {
	if maxEntries <= 0 {
		return nil
	}
	var count int64
	if err := tx.Model(&HistoryRecord{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return err
	}
	excess := count - int64(maxEntries)
	if excess <= 0 {
		return nil
	}
	var stale []HistoryRecord
	if err := tx.Where("user_id = ?", userID).
		Order("id asc").Limit(int(excess)).Find(&stale).Error; err != nil {
		return err
	}
	return tx.Unscoped().Delete(&stale).Error
}

func GetHistory(ctx context.Context, chatID int64, limit int) ([]HistoryRecord, error) {
	user, err := GetUserByChatID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	var records []HistoryRecord
	err = db.WithContext(ctx).
		Where("user_id = ?", user.ID).
		Order("id desc").Limit(limit).Find(&records).Error
	return records, err
}
