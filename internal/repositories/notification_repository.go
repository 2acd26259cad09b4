package repositories

import (
	"github.com/padosi-app/backend/internal/models"
	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateNotification(notification *models.Notification) error
	GetByRecipientID(recipientID uint, limit int) ([]models.Notification, error)
	GetUnreadCount(recipientID uint) (int64, error)
	MarkAsRead(notificationID, recipientID uint) error
	MarkAllAsRead(recipientID uint) error
	ClearAll(recipientID uint) error
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) CreateNotification(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

func (r *postgresNotificationRepository) GetByRecipientID(recipientID uint, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

func (r *postgresNotificationRepository) GetUnreadCount(recipientID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND read = false", recipientID).Count(&count).Error
	return count, err
}

// MarkAsRead is idempotent: marking an already-read notification succeeds.
func (r *postgresNotificationRepository) MarkAsRead(notificationID, recipientID uint) error {
	return r.db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		Update("read", true).Error
}

func (r *postgresNotificationRepository) MarkAllAsRead(recipientID uint) error {
	return r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND read = false", recipientID).
		Update("read", true).Error
}

func (r *postgresNotificationRepository) ClearAll(recipientID uint) error {
	return r.db.Delete(&models.Notification{}, "recipient_id = ?", recipientID).Error
}
