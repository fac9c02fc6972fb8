package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/proofr/notifier/pkg/pg"
)

// PostgresStorage implements Storage on a pgx connection pool.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage creates a Postgres-backed notification store.
func NewPostgresStorage(pool *pgxpool.Pool) (*PostgresStorage, error) {
	if pool == nil {
		return nil, ErrStorageNil
	}
	return &PostgresStorage{pool: pool}, nil
}

const notificationColumns = `id, user_id, email_type, template_id, template_data, recipient_email,
	booking_id, message_ref, status, retry_count, next_retry_at, provider_message_id,
	sent_at, opened_at, clicked_at, error_message, created_at, updated_at`

func (s *PostgresStorage) Create(ctx context.Context, n *Notification) error {
	if n == nil {
		return fmt.Errorf("%w: nil notification", ErrCreateFailed)
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO email_notifications (
			id, user_id, email_type, template_id, template_data, recipient_email,
			booking_id, message_ref, status, retry_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		n.ID, n.UserID, n.EmailType, n.TemplateID, n.TemplateData, n.RecipientEmail,
		n.BookingID, n.MessageRef, n.Status, n.RetryCount, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return errors.Join(ErrCreateFailed, err)
	}
	return nil
}

func (s *PostgresStorage) Get(ctx context.Context, id uuid.UUID) (*Notification, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+notificationColumns+` FROM email_notifications WHERE id = $1`, id)

	n, err := scanNotification(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return n, nil
}

// ClaimDue selects eligible rows with SKIP LOCKED so overlapping processor
// ticks partition the queue instead of double-claiming, then flips the
// selection to sending in the same statement.
func (s *PostgresStorage) ClaimDue(ctx context.Context, limit int) ([]*Notification, error) {
	rows, err := s.pool.Query(ctx, `
		WITH due AS (
			SELECT id FROM email_notifications
			WHERE status IN ('pending','failed')
			  AND retry_count < $1
			  AND (next_retry_at IS NULL OR next_retry_at <= now())
			ORDER BY created_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		UPDATE email_notifications n
		SET status = 'sending', updated_at = now()
		FROM due
		WHERE n.id = due.id
		RETURNING `+qualifiedColumns("n"), MaxAttempts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claimed []*Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		claimed = append(claimed, n)
	}
	return claimed, rows.Err()
}

func (s *PostgresStorage) MarkSent(ctx context.Context, id uuid.UUID, providerMessageID string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE email_notifications
		SET status = 'sent', provider_message_id = $2, sent_at = now(),
		    error_message = NULL, next_retry_at = NULL, updated_at = now()
		WHERE id = $1 AND status = 'sending'`,
		id, providerMessageID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: notification %s", ErrNotClaimed, id)
	}
	return nil
}

func (s *PostgresStorage) MarkRetry(ctx context.Context, id uuid.UUID, retryCount int, nextRetryAt time.Time, errMsg string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE email_notifications
		SET status = 'pending', retry_count = $2, next_retry_at = $3,
		    error_message = $4, updated_at = now()
		WHERE id = $1 AND status = 'sending'`,
		id, retryCount, nextRetryAt, errMsg)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: notification %s", ErrNotClaimed, id)
	}
	return nil
}

func (s *PostgresStorage) MarkFailed(ctx context.Context, id uuid.UUID, retryCount int, errMsg string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE email_notifications
		SET status = 'failed', retry_count = $2, next_retry_at = NULL,
		    error_message = $3, updated_at = now()
		WHERE id = $1 AND status = 'sending'`,
		id, retryCount, errMsg)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: notification %s", ErrNotClaimed, id)
	}
	return nil
}

// MarkBounced is deliberately unconditional on prior status: a bounce is a
// one-way terminal override, even over sent.
func (s *PostgresStorage) MarkBounced(ctx context.Context, providerMessageID, reason string) (bool, error) {
	if providerMessageID == "" {
		return false, nil
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE email_notifications
		SET status = 'bounced', error_message = $2, next_retry_at = NULL, updated_at = now()
		WHERE provider_message_id = $1`,
		providerMessageID, reason)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStorage) MarkOpened(ctx context.Context, providerMessageID string, at time.Time) (bool, error) {
	if providerMessageID == "" {
		return false, nil
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE email_notifications
		SET opened_at = $2, updated_at = now()
		WHERE provider_message_id = $1`,
		providerMessageID, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStorage) MarkClicked(ctx context.Context, providerMessageID string, at time.Time) (bool, error) {
	if providerMessageID == "" {
		return false, nil
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE email_notifications
		SET clicked_at = $2, updated_at = now()
		WHERE provider_message_id = $1`,
		providerMessageID, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStorage) List(ctx context.Context, f Filter) ([]*Notification, error) {
	limit := f.Limit
	if limit <= 0 || limit > MaxListResults {
		limit = MaxListResults
	}

	query := `SELECT ` + notificationColumns + ` FROM email_notifications WHERE 1=1`
	args := []any{}

	if f.ID != nil {
		args = append(args, *f.ID)
		query += fmt.Sprintf(" AND id = $%d", len(args))
	}
	if f.UserID != "" {
		args = append(args, f.UserID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matched []*Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		matched = append(matched, n)
	}
	return matched, rows.Err()
}

func qualifiedColumns(alias string) string {
	return alias + `.id, ` + alias + `.user_id, ` + alias + `.email_type, ` + alias + `.template_id, ` +
		alias + `.template_data, ` + alias + `.recipient_email, ` + alias + `.booking_id, ` +
		alias + `.message_ref, ` + alias + `.status, ` + alias + `.retry_count, ` +
		alias + `.next_retry_at, ` + alias + `.provider_message_id, ` + alias + `.sent_at, ` +
		alias + `.opened_at, ` + alias + `.clicked_at, ` + alias + `.error_message, ` +
		alias + `.created_at, ` + alias + `.updated_at`
}

func scanNotification(row pgx.Row) (*Notification, error) {
	var n Notification
	err := row.Scan(
		&n.ID, &n.UserID, &n.EmailType, &n.TemplateID, &n.TemplateData, &n.RecipientEmail,
		&n.BookingID, &n.MessageRef, &n.Status, &n.RetryCount, &n.NextRetryAt, &n.ProviderMessageID,
		&n.SentAt, &n.OpenedAt, &n.ClickedAt, &n.ErrorMessage, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
