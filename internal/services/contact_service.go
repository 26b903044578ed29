package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/priyanshu85-coder/StudentFlatFinder/internal/models"
	"github.com/priyanshu85-coder/StudentFlatFinder/internal/repository"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrForbidden        = errors.New("forbidden")
	ErrUserNotFound     = errors.New("user not found")
	ErrPropertyNotFound = errors.New("property not found")
	ErrContactNotFound  = errors.New("contact not found")
	ErrRatingNotFound   = errors.New("rating not found")
)

type transactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type userReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type contactReader interface {
	GetByID(ctx context.Context, id int64) (*models.Contact, error)
	ListForStudent(ctx context.Context, studentID int64) ([]models.ContactDetail, error)
	ListForBroker(ctx context.Context, brokerID int64) ([]models.ContactDetail, error)
}

type threadReader interface {
	ListByContacts(ctx context.Context, contactIDs []int64) (map[int64][]models.ThreadMessage, error)
}

type propertyCatalog interface {
	GetByID(ctx context.Context, id int64) (*models.Property, error)
	IncrementInquiries(ctx context.Context, id int64) error
}

// ContactService owns the inquiry threads: one contact per initial student
// inquiry, an append-only conversation behind it, and a status that only ever
// moves pending -> responded (on the broker's first reply).
type ContactService struct {
	db           transactor
	contactRepo  contactReader
	threadRepo   threadReader
	userRepo     userReader
	propertyRepo propertyCatalog
}

func NewContactService(
	db transactor,
	contactRepo contactReader,
	threadRepo threadReader,
	userRepo userReader,
	propertyRepo propertyCatalog,
) *ContactService {
	return &ContactService{
		db:           db,
		contactRepo:  contactRepo,
		threadRepo:   threadRepo,
		userRepo:     userRepo,
		propertyRepo: propertyRepo,
	}
}

// ThreadDelivery carries one freshly appended message plus the party it
// should be pushed to.
type ThreadDelivery struct {
	ContactID   int64
	Message     models.ThreadMessage
	RecipientID int64
}

// CreateContact opens a thread seeded with the student's message, so the
// conversation is never empty. Phone numbers are snapshotted from the two
// user records as they are right now and never re-synced.
func (s *ContactService) CreateContact(
	ctx context.Context,
	studentID int64,
	brokerID int64,
	propertyID int64,
	message string,
) (int64, error) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return 0, ErrInvalidInput
	}

	student, err := s.userRepo.GetByID(ctx, studentID)
	if err != nil {
		return 0, mapNotFound(err, ErrUserNotFound)
	}
	broker, err := s.userRepo.GetByID(ctx, brokerID)
	if err != nil {
		return 0, mapNotFound(err, ErrUserNotFound)
	}
	property, err := s.propertyRepo.GetByID(ctx, propertyID)
	if err != nil {
		return 0, mapNotFound(err, ErrPropertyNotFound)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	contact, err := repository.NewContactRepository(tx).Create(ctx, repository.CreateContactInput{
		StudentID:    studentID,
		BrokerID:     brokerID,
		PropertyID:   propertyID,
		Message:      trimmed,
		StudentPhone: student.Phone,
		BrokerPhone:  broker.Phone,
	})
	if err != nil {
		return 0, err
	}

	if _, err := repository.NewThreadMessageRepository(tx).Append(
		ctx,
		contact.ID,
		models.SenderStudent,
		trimmed,
		contact.CreatedAt,
	); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	// Best-effort counter bump; the contact stands even when it fails.
	if err := s.propertyRepo.IncrementInquiries(ctx, property.ID); err != nil {
		log.Printf("increment inquiries for property %d: %v", property.ID, err)
	}

	return contact.ID, nil
}

// AppendBrokerReply records the broker's reply: the latest-reply mirror is
// overwritten, the message is appended to the conversation and the thread
// becomes responded. Calling it again just appends and overwrites the mirror.
func (s *ContactService) AppendBrokerReply(
	ctx context.Context,
	contactID int64,
	brokerID int64,
	message string,
) (*models.BrokerReplySnapshot, error) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return nil, ErrInvalidInput
	}

	contact, err := s.contactRepo.GetByID(ctx, contactID)
	if err != nil {
		return nil, mapNotFound(err, ErrContactNotFound)
	}
	if contact.BrokerID != brokerID {
		return nil, ErrForbidden
	}

	updated, conversation, err := s.appendReply(ctx, contactID, models.SenderBroker, trimmed)
	if err != nil {
		return nil, err
	}

	return &models.BrokerReplySnapshot{
		ContactID:    updated.ID,
		BrokerReply:  *updated.BrokerReply,
		RepliedAt:    *updated.RepliedAt,
		Status:       updated.Status,
		Conversation: conversation,
	}, nil
}

// AppendStudentReply is the student-side mirror of AppendBrokerReply with one
// deliberate asymmetry: the thread status is left untouched.
func (s *ContactService) AppendStudentReply(
	ctx context.Context,
	contactID int64,
	studentID int64,
	message string,
) (*models.StudentReplySnapshot, error) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return nil, ErrInvalidInput
	}

	contact, err := s.contactRepo.GetByID(ctx, contactID)
	if err != nil {
		return nil, mapNotFound(err, ErrContactNotFound)
	}
	if contact.StudentID != studentID {
		return nil, ErrForbidden
	}

	updated, conversation, err := s.appendReply(ctx, contactID, models.SenderStudent, trimmed)
	if err != nil {
		return nil, err
	}

	return &models.StudentReplySnapshot{
		ContactID:        updated.ID,
		StudentReply:     *updated.StudentReply,
		StudentRepliedAt: *updated.StudentRepliedAt,
		Conversation:     conversation,
	}, nil
}

// appendReply runs the mirror update and the conversation append in one
// transaction so concurrent replies from both parties cannot drop a message.
func (s *ContactService) appendReply(
	ctx context.Context,
	contactID int64,
	sender string,
	message string,
) (*models.Contact, []models.ThreadMessage, error) {
	now := time.Now().UTC()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txContacts := repository.NewContactRepository(tx)
	txThread := repository.NewThreadMessageRepository(tx)

	var updated *models.Contact
	if sender == models.SenderBroker {
		updated, err = txContacts.SetBrokerReply(ctx, contactID, message, now)
	} else {
		updated, err = txContacts.SetStudentReply(ctx, contactID, message, now)
	}
	if err != nil {
		return nil, nil, mapNotFound(err, ErrContactNotFound)
	}

	if _, err := txThread.Append(ctx, contactID, sender, message, now); err != nil {
		return nil, nil, err
	}

	conversation, err := txThread.ListByContact(ctx, contactID)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	return updated, conversation, nil
}

// Reply routes a reply by the caller's role; used by the websocket path where
// both parties share one endpoint.
func (s *ContactService) Reply(
	ctx context.Context,
	actorID int64,
	role string,
	contactID int64,
	message string,
) (*ThreadDelivery, error) {
	switch role {
	case models.UserTypeBroker:
		snapshot, err := s.AppendBrokerReply(ctx, contactID, actorID, message)
		if err != nil {
			return nil, err
		}
		contact, err := s.contactRepo.GetByID(ctx, contactID)
		if err != nil {
			return nil, mapNotFound(err, ErrContactNotFound)
		}
		return &ThreadDelivery{
			ContactID:   contactID,
			Message:     snapshot.Conversation[len(snapshot.Conversation)-1],
			RecipientID: contact.StudentID,
		}, nil
	case models.UserTypeStudent:
		snapshot, err := s.AppendStudentReply(ctx, contactID, actorID, message)
		if err != nil {
			return nil, err
		}
		contact, err := s.contactRepo.GetByID(ctx, contactID)
		if err != nil {
			return nil, mapNotFound(err, ErrContactNotFound)
		}
		return &ThreadDelivery{
			ContactID:   contactID,
			Message:     snapshot.Conversation[len(snapshot.Conversation)-1],
			RecipientID: contact.BrokerID,
		}, nil
	default:
		return nil, ErrForbidden
	}
}

// ListForStudent returns the student's threads newest first with full
// conversations attached.
func (s *ContactService) ListForStudent(ctx context.Context, studentID int64) ([]models.ContactDetail, error) {
	details, err := s.contactRepo.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return s.attachConversations(ctx, details)
}

func (s *ContactService) ListForBroker(ctx context.Context, brokerID int64) ([]models.ContactDetail, error) {
	details, err := s.contactRepo.ListForBroker(ctx, brokerID)
	if err != nil {
		return nil, err
	}
	return s.attachConversations(ctx, details)
}

func (s *ContactService) attachConversations(ctx context.Context, details []models.ContactDetail) ([]models.ContactDetail, error) {
	ids := make([]int64, 0, len(details))
	for _, detail := range details {
		ids = append(ids, detail.ID)
	}

	conversations, err := s.threadRepo.ListByContacts(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range details {
		if conversation, ok := conversations[details[i].ID]; ok {
			details[i].Conversation = conversation
		}
	}

	return details, nil
}

func mapNotFound(err, notFound error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	return err
}
