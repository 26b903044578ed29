package models

import "time"

const (
	ContactStatusPending   = "pending"
	ContactStatusResponded = "responded"
	ContactStatusClosed    = "closed"
)

const (
	SenderStudent = "student"
	SenderBroker  = "broker"
)

// Contact is one inquiry thread between a student and a broker about one
// property. BrokerReply/StudentReply only mirror the latest message from each
// side; the contact_messages rows are the authoritative history.
type Contact struct {
	ID               int64      `json:"id"`
	StudentID        int64      `json:"student_id"`
	BrokerID         int64      `json:"broker_id"`
	PropertyID       int64      `json:"property_id"`
	Message          string     `json:"message"`
	StudentPhone     string     `json:"student_phone"`
	BrokerPhone      string     `json:"broker_phone"`
	Status           string     `json:"status"`
	BrokerReply      *string    `json:"broker_reply,omitempty"`
	RepliedAt        *time.Time `json:"replied_at,omitempty"`
	StudentReply     *string    `json:"student_reply,omitempty"`
	StudentRepliedAt *time.Time `json:"student_replied_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

type ThreadMessage struct {
	ID        int64     `json:"id"`
	ContactID int64     `json:"contact_id"`
	Sender    string    `json:"sender"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ContactDetail is a contact enriched for the inbox views: the counterparty,
// the property title and the full conversation.
type ContactDetail struct {
	Contact
	Student       *UserSummary    `json:"student,omitempty"`
	Broker        *UserSummary    `json:"broker,omitempty"`
	PropertyTitle string          `json:"property_title"`
	Conversation  []ThreadMessage `json:"conversation"`
}

type BrokerReplySnapshot struct {
	ContactID    int64           `json:"contact_id"`
	BrokerReply  string          `json:"broker_reply"`
	RepliedAt    time.Time       `json:"replied_at"`
	Status       string          `json:"status"`
	Conversation []ThreadMessage `json:"conversation"`
}

type StudentReplySnapshot struct {
	ContactID        int64           `json:"contact_id"`
	StudentReply     string          `json:"student_reply"`
	StudentRepliedAt time.Time       `json:"student_replied_at"`
	Conversation     []ThreadMessage `json:"conversation"`
}
