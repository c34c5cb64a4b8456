package models

import (
	"time"

	"mentorship/backend/pkg/mentorship"
)

// Relationship is a directed mentor–mentee row. Rows are never deleted;
// REJECTED and TERMINATED mark the end of a row, not of the pair.
type Relationship struct {
	ID         uint              `gorm:"primaryKey"`
	MentorID   uint              `gorm:"not null;index"`
	MenteeID   uint              `gorm:"not null;index"`
	SenderID   uint              `gorm:"not null"`
	ReceiverID uint              `gorm:"not null"`
	Status     mentorship.Status `gorm:"type:varchar(20);not null;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Mentor User `gorm:"foreignKey:MentorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Mentee User `gorm:"foreignKey:MenteeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// ToDomain converts the row, filling usernames from preloaded users.
func (r Relationship) ToDomain() mentorship.Relationship {
	return mentorship.Relationship{
		ID:             r.ID,
		Mentor:         r.MentorID,
		Mentee:         r.MenteeID,
		Sender:         r.SenderID,
		Receiver:       r.ReceiverID,
		Status:         r.Status,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		MentorUsername: r.Mentor.Username,
		MenteeUsername: r.Mentee.Username,
	}
}

// NewRelationship builds a row from a domain relationship.
func NewRelationship(d mentorship.Relationship) Relationship {
	return Relationship{
		MentorID:   d.Mentor,
		MenteeID:   d.Mentee,
		SenderID:   d.Sender,
		ReceiverID: d.Receiver,
		Status:     d.Status,
	}
}
