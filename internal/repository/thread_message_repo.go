package repository

import (
	"context"
	"time"

	"github.com/priyanshu85-coder/StudentFlatFinder/internal/models"
)

// ThreadMessageRepository stores the append-only conversation rows behind a
// contact. Ordering by (created_at, id) keeps insertion order chronological.
type ThreadMessageRepository struct {
	db DBTX
}

func NewThreadMessageRepository(db DBTX) *ThreadMessageRepository {
	return &ThreadMessageRepository{db: db}
}

func (r *ThreadMessageRepository) Append(ctx context.Context, contactID int64, sender, message string, at time.Time) (*models.ThreadMessage, error) {
	query := `
		INSERT INTO contact_messages (contact_id, sender, message, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, contact_id, sender, message, created_at
	`

	var entry models.ThreadMessage
	err := r.db.QueryRow(ctx, query, contactID, sender, message, at).Scan(
		&entry.ID,
		&entry.ContactID,
		&entry.Sender,
		&entry.Message,
		&entry.Timestamp,
	)
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

func (r *ThreadMessageRepository) ListByContact(ctx context.Context, contactID int64) ([]models.ThreadMessage, error) {
	query := `
		SELECT id, contact_id, sender, message, created_at
		FROM contact_messages
		WHERE contact_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.ThreadMessage, 0)
	for rows.Next() {
		var entry models.ThreadMessage
		if err := rows.Scan(&entry.ID, &entry.ContactID, &entry.Sender, &entry.Message, &entry.Timestamp); err != nil {
			return nil, err
		}
		messages = append(messages, entry)
	}

	return messages, rows.Err()
}

// ListByContacts loads the conversations for a batch of contacts in one
// query, grouped by contact id, for the inbox endpoints.
func (r *ThreadMessageRepository) ListByContacts(ctx context.Context, contactIDs []int64) (map[int64][]models.ThreadMessage, error) {
	grouped := make(map[int64][]models.ThreadMessage, len(contactIDs))
	if len(contactIDs) == 0 {
		return grouped, nil
	}

	query := `
		SELECT id, contact_id, sender, message, created_at
		FROM contact_messages
		WHERE contact_id = ANY($1)
		ORDER BY contact_id, created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, contactIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var entry models.ThreadMessage
		if err := rows.Scan(&entry.ID, &entry.ContactID, &entry.Sender, &entry.Message, &entry.Timestamp); err != nil {
			return nil, err
		}
		grouped[entry.ContactID] = append(grouped[entry.ContactID], entry)
	}

	return grouped, rows.Err()
}
