package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/adminhub/chat-notify-go/internal/database"
	"github.com/adminhub/chat-notify-go/internal/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, params model.CreateNotificationParams) (*model.NotificationRecord, error)
	FindByID(ctx context.Context, id string) (*model.NotificationRecord, error)
	FindRecentByIdentity(ctx context.Context, identity string, limit, offset int) ([]model.NotificationRecord, error)
	CountByIdentity(ctx context.Context, identity string) (int, error)
	CountByIdentitySince(ctx context.Context, identity string, since time.Time) (int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type notificationRepo struct {
	db database.DBTX
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, params model.CreateNotificationParams) (*model.NotificationRecord, error) {
	var rec model.NotificationRecord
	err := r.db.GetContext(ctx, &rec, `
		INSERT INTO notifications
			(id, identity, chat_session_id, message_id, title, body)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`, params.ID, params.Identity, params.ChatSessionID, params.MessageID,
		params.Title, params.Body)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *notificationRepo) FindByID(ctx context.Context, id string) (*model.NotificationRecord, error) {
	var rec model.NotificationRecord
	err := r.db.GetContext(ctx, &rec, `SELECT * FROM notifications WHERE id = $1`, id)
	return HandleNotFound(&rec, err)
}

func (r *notificationRepo) FindRecentByIdentity(ctx context.Context, identity string, limit, offset int) ([]model.NotificationRecord, error) {
	var recs []model.NotificationRecord
	err := r.db.SelectContext(ctx, &recs, `
		SELECT * FROM notifications
		WHERE identity = $1
		ORDER BY dispatched_at DESC
		LIMIT $2 OFFSET $3
	`, identity, limit, offset)
	return recs, err
}

func (r *notificationRepo) CountByIdentity(ctx context.Context, identity string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM notifications WHERE identity = $1
	`, identity)
	return count, err
}

func (r *notificationRepo) CountByIdentitySince(ctx context.Context, identity string, since time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM notifications
		WHERE identity = $1 AND dispatched_at >= $2
	`, identity, since)
	return count, err
}

func (r *notificationRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM notifications WHERE dispatched_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
