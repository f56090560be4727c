package models

import "time"

const (
	ConsultationPending   = "pending"
	ConsultationScheduled = "scheduled"
	ConsultationCompleted = "completed"
	ConsultationCancelled = "cancelled"
)

type Consultation struct {
	ID           string     `bson:"_id" json:"id"`
	UserID       string     `bson:"userId" json:"userId"`
	PatientToken string     `bson:"patientToken" json:"patientToken"`
	ConsultURL   *string    `bson:"consultUrl,omitempty" json:"consultUrl"`
	Location     string     `bson:"location" json:"location"`
	ProviderID   *string    `bson:"providerId,omitempty" json:"providerId"`
	Metadata     *string    `bson:"metadata,omitempty" json:"metadata"`
	Status       string     `bson:"status" json:"status"`
	CreatedAt    time.Time  `bson:"createdAt" json:"createdAt"`
	ScheduledAt  *time.Time `bson:"scheduledAt,omitempty" json:"scheduledAt"`
}

func IsConsultationStatus(status string) bool {
	switch status {
	case ConsultationPending, ConsultationScheduled, ConsultationCompleted, ConsultationCancelled:
		return true
	}
	return false
}
