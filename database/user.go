package database

import (
	"context"
	"time"

	"gorm.io/gorm"
)

func CreateUser(ctx context.Context, chatID int64, firstName, username string) error {
	if _, err := GetUserByChatID(ctx, chatID); err == nil {
		return db.WithContext(ctx).Model(&User{}).
			Where("chat_id = ?", chatID).
			Updates(map[string]any{"first_name": firstName, "username": username}).Error
	}
	return db.WithContext(ctx).Create(&User{
		ChatID:       chatID,
		FirstName:    firstName,
		Username:     username,
		QuotaResetAt: time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour),
	}).Error
}

func GetUserByChatID(ctx context.Context, chatID int64) (*User, error) {
	var user User
	err := db.WithContext(ctx).
		Where("chat_id = ?", chatID).First(&user).Error
	return &user, err
}

func GetAllUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := db.WithContext(ctx).Find(&users).Error
	return users, err
}

func CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&User{}).Count(&count).Error
	return count, err
}

// MutateUser runs fn against the user row inside a transaction, persisting
// the mutated row before the transaction commits. This is the only way quota
// fields are written, so concurrent requests from one user cannot lose
// updates.
func MutateUser(ctx context.Context, chatID int64, fn func(*User) error) (*User, error) {
	var user User
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", chatID).First(&user).Error; err != nil {
			return err
		}
		if err := fn(&user); err != nil {
			return err
		}
		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func SetPremiumUntil(ctx context.Context, chatID int64, until time.Time) error {
	_, err := MutateUser(ctx, chatID, func(u *User) error {
		u.PremiumUntil = until
		return nil
	})
	return err
}

func SetForwardChat(ctx context.Context, chatID int64, forwardChatID int64) error {
	_, err := MutateUser(ctx, chatID, func(u *User) error {
		u.ForwardChatID = forwardChatID
		return nil
	})
	return err
}
