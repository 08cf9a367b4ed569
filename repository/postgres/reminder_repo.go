package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/gameday/domain"
	"github.com/fastygo/gameday/repository"
)

const reminderColumns = `id, user_id, title, description, deadline, priority, category,
	is_completed, completed_at, completion_status, notify_before, created_at, updated_at`

type reminderRepository struct {
	pool *pgxpool.Pool
}

// NewReminderRepository returns a Postgres-backed implementation of ReminderRepository.
func NewReminderRepository(pool *pgxpool.Pool) repository.ReminderRepository {
	return &reminderRepository{pool: pool}
}

func (r *reminderRepository) List(ctx context.Context, userID string) ([]domain.Reminder, error) {
	const query = `
	SELECT ` + reminderColumns + `
	FROM reminders
	WHERE user_id = $1
	ORDER BY created_at ASC, id ASC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reminders := make([]domain.Reminder, 0)
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, *reminder)
	}
	return reminders, rows.Err()
}

func (r *reminderRepository) GetByID(ctx context.Context, userID, id string) (*domain.Reminder, error) {
	const query = `
	SELECT ` + reminderColumns + `
	FROM reminders
	WHERE user_id = $1 AND id = $2
	`
	return scanReminder(r.pool.QueryRow(ctx, query, userID, id))
}

const insertReminder = `
	INSERT INTO reminders (` + reminderColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, COALESCE($12, NOW()), COALESCE($13, NOW()))
	RETURNING created_at, updated_at
	`

func (r *reminderRepository) Create(ctx context.Context, reminder *domain.Reminder) error {
	if reminder == nil || reminder.ID == "" || reminder.UserID == "" {
		return domain.ErrInvalidPayload
	}
	return r.pool.QueryRow(ctx, insertReminder, insertArgs(reminder)...).
		Scan(&reminder.CreatedAt, &reminder.UpdatedAt)
}

func (r *reminderRepository) CreateBatch(ctx context.Context, userID string, reminders []domain.Reminder) error {
	if userID == "" {
		return domain.ErrInvalidPayload
	}
	if len(reminders) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for i := range reminders {
		reminder := reminders[i]
		reminder.UserID = userID
		batch.Queue(insertReminder, insertArgs(&reminder)...)
	}

	results := tx.SendBatch(ctx, batch)
	for range reminders {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return err
		}
	}
	if err := results.Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *reminderRepository) Update(ctx context.Context, reminder *domain.Reminder) error {
	if reminder == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE reminders
	SET title = $3,
		description = $4,
		deadline = $5,
		priority = $6,
		category = $7,
		notify_before = $8,
		updated_at = NOW()
	WHERE user_id = $1 AND id = $2
	RETURNING updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		reminder.UserID,
		reminder.ID,
		reminder.Title,
		reminder.Description,
		reminder.Deadline,
		string(reminder.Priority),
		string(reminder.Category),
		reminder.NotifyBefore,
	).Scan(&reminder.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrReminderNotFound
		}
		return err
	}

	return nil
}

func (r *reminderRepository) Resolve(ctx context.Context, userID, id string, status domain.CompletionStatus, at time.Time) (bool, error) {
	const query = `
	UPDATE reminders
	SET is_completed = TRUE,
		completed_at = $3,
		completion_status = $4,
		updated_at = NOW()
	WHERE user_id = $1 AND id = $2 AND is_completed = FALSE
	`
	tag, err := r.pool.Exec(ctx, query, userID, id, at, string(status))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *reminderRepository) Delete(ctx context.Context, userID, id string) error {
	const query = `DELETE FROM reminders WHERE user_id = $1 AND id = $2`
	tag, err := r.pool.Exec(ctx, query, userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReminderNotFound
	}
	return nil
}

func insertArgs(reminder *domain.Reminder) []interface{} {
	return []interface{}{
		reminder.ID,
		reminder.UserID,
		reminder.Title,
		reminder.Description,
		reminder.Deadline,
		string(reminder.Priority),
		string(reminder.Category),
		reminder.IsCompleted,
		nullTimePtr(reminder.CompletedAt),
		nullString(string(reminder.CompletionStatus)),
		reminder.NotifyBefore,
		nullTime(reminder.CreatedAt),
		nullTime(reminder.UpdatedAt),
	}
}

func scanReminder(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Reminder, error) {
	var (
		reminder    domain.Reminder
		priority    string
		category    string
		completedAt *time.Time
		status      *string
	)

	if err := row.Scan(
		&reminder.ID,
		&reminder.UserID,
		&reminder.Title,
		&reminder.Description,
		&reminder.Deadline,
		&priority,
		&category,
		&reminder.IsCompleted,
		&completedAt,
		&status,
		&reminder.NotifyBefore,
		&reminder.CreatedAt,
		&reminder.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReminderNotFound
		}
		return nil, err
	}

	reminder.Priority = domain.Priority(priority)
	reminder.Category = domain.Category(category)
	reminder.CompletedAt = completedAt
	if status != nil {
		reminder.CompletionStatus = domain.CompletionStatus(*status)
	}

	return &reminder, nil
}
