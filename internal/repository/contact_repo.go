package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/priyanshu85-coder/StudentFlatFinder/internal/models"
)

type ContactRepository struct {
	db DBTX
}

func NewContactRepository(db DBTX) *ContactRepository {
	return &ContactRepository{db: db}
}

type CreateContactInput struct {
	StudentID    int64
	BrokerID     int64
	PropertyID   int64
	Message      string
	StudentPhone string
	BrokerPhone  string
}

const contactColumns = `c.id, c.student_id, c.broker_id, c.property_id, c.message,
		c.student_phone, c.broker_phone, c.status, c.broker_reply, c.replied_at,
		c.student_reply, c.student_replied_at, c.created_at`

func scanContact(row pgx.Row, dest ...any) (*models.Contact, error) {
	var contact models.Contact
	targets := []any{
		&contact.ID,
		&contact.StudentID,
		&contact.BrokerID,
		&contact.PropertyID,
		&contact.Message,
		&contact.StudentPhone,
		&contact.BrokerPhone,
		&contact.Status,
		&contact.BrokerReply,
		&contact.RepliedAt,
		&contact.StudentReply,
		&contact.StudentRepliedAt,
		&contact.CreatedAt,
	}
	targets = append(targets, dest...)

	if err := row.Scan(targets...); err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *ContactRepository) Create(ctx context.Context, input CreateContactInput) (*models.Contact, error) {
	query := `
		INSERT INTO contacts (student_id, broker_id, property_id, message, student_phone, broker_phone)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, student_id, broker_id, property_id, message,
			student_phone, broker_phone, status, broker_reply, replied_at,
			student_reply, student_replied_at, created_at
	`
	return scanContact(r.db.QueryRow(
		ctx,
		query,
		input.StudentID,
		input.BrokerID,
		input.PropertyID,
		input.Message,
		input.StudentPhone,
		input.BrokerPhone,
	))
}

func (r *ContactRepository) GetByID(ctx context.Context, id int64) (*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts c WHERE c.id = $1`
	return scanContact(r.db.QueryRow(ctx, query, id))
}

// SetBrokerReply overwrites the latest-reply mirror and flips the thread to
// responded. Repeating it keeps the status and just replaces the mirror.
func (r *ContactRepository) SetBrokerReply(ctx context.Context, id int64, reply string, at time.Time) (*models.Contact, error) {
	query := `
		UPDATE contacts
		SET broker_reply = $2, replied_at = $3, status = 'responded'
		WHERE id = $1
		RETURNING id, student_id, broker_id, property_id, message,
			student_phone, broker_phone, status, broker_reply, replied_at,
			student_reply, student_replied_at, created_at
	`
	return scanContact(r.db.QueryRow(ctx, query, id, reply, at))
}

// SetStudentReply deliberately leaves status alone; a student follow-up does
// not push a responded thread back to pending.
func (r *ContactRepository) SetStudentReply(ctx context.Context, id int64, reply string, at time.Time) (*models.Contact, error) {
	query := `
		UPDATE contacts
		SET student_reply = $2, student_replied_at = $3
		WHERE id = $1
		RETURNING id, student_id, broker_id, property_id, message,
			student_phone, broker_phone, status, broker_reply, replied_at,
			student_reply, student_replied_at, created_at
	`
	return scanContact(r.db.QueryRow(ctx, query, id, reply, at))
}

// ListForStudent returns the student's threads newest first, with the broker
// as counterparty and the property title attached.
func (r *ContactRepository) ListForStudent(ctx context.Context, studentID int64) ([]models.ContactDetail, error) {
	query := `
		SELECT ` + contactColumns + `, u.id, u.name, u.email, u.phone, p.title
		FROM contacts c
		JOIN users u ON u.id = c.broker_id
		JOIN properties p ON p.id = c.property_id
		WHERE c.student_id = $1
		ORDER BY c.created_at DESC, c.id DESC
	`
	return r.listDetails(ctx, query, models.SenderBroker, studentID)
}

// ListForBroker mirrors ListForStudent with the student as counterparty.
func (r *ContactRepository) ListForBroker(ctx context.Context, brokerID int64) ([]models.ContactDetail, error) {
	query := `
		SELECT ` + contactColumns + `, u.id, u.name, u.email, u.phone, p.title
		FROM contacts c
		JOIN users u ON u.id = c.student_id
		JOIN properties p ON p.id = c.property_id
		WHERE c.broker_id = $1
		ORDER BY c.created_at DESC, c.id DESC
	`
	return r.listDetails(ctx, query, models.SenderStudent, brokerID)
}

func (r *ContactRepository) listDetails(ctx context.Context, query, counterparty string, partyID int64) ([]models.ContactDetail, error) {
	rows, err := r.db.Query(ctx, query, partyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]models.ContactDetail, 0)
	for rows.Next() {
		var other models.UserSummary
		var title string
		contact, err := scanContact(rows, &other.ID, &other.Name, &other.Email, &other.Phone, &title)
		if err != nil {
			return nil, err
		}

		detail := models.ContactDetail{
			Contact:       *contact,
			PropertyTitle: title,
			Conversation:  []models.ThreadMessage{},
		}
		if counterparty == models.SenderBroker {
			detail.Broker = &other
		} else {
			detail.Student = &other
		}
		details = append(details, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return details, nil
}

func (r *ContactRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&count)
	return count, err
}
