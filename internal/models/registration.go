package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Registration struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	StudentID           string         `gorm:"size:50;uniqueIndex;not null" json:"student_id"`
	FullName            string         `gorm:"size:255;not null" json:"full_name"`
	DateOfBirth         datatypes.Date `gorm:"not null" json:"date_of_birth"`
	Batch               string         `gorm:"size:50;not null" json:"batch"`
	Session             string         `gorm:"size:50;not null" json:"session"`
	Email               string         `gorm:"size:254;not null" json:"email"`
	ContactNumber       string         `gorm:"size:15;not null" json:"contact_number"`
	WhatsappNumber      string         `gorm:"size:15;not null" json:"whatsapp_number"`
	AdultGuests         uint           `gorm:"not null;default:0" json:"adult_guests"`
	ChildGuests         uint           `gorm:"not null;default:0" json:"child_guests"`
	TotalAmount         float64        `gorm:"type:numeric(10,2);not null;default:0" json:"total_amount"`
	PaymentMethod       string         `gorm:"size:100;not null" json:"payment_method"`
	TransactionID       string         `gorm:"size:255;not null" json:"transaction_id"`
	TransactionDocument string         `gorm:"size:255;not null" json:"transaction_document"`
	ProfilePicture      string         `gorm:"size:255;not null" json:"profile_picture"`
	Password            string         `gorm:"size:255;not null" json:"-"`
	Approved            bool           `gorm:"not null;default:false" json:"approved"`
	RegisteredAt        time.Time      `gorm:"autoCreateTime" json:"registration_datetime"`
	EventRef            uuid.UUID      `gorm:"type:uuid;index;not null" json:"-"`
	Event               Event          `gorm:"foreignKey:EventRef;constraint:OnDelete:CASCADE" json:"-"`
}

func (registration *Registration) BeforeCreate(tx *gorm.DB) (err error) {
	if registration.ID == uuid.Nil {
		registration.ID = uuid.New()
	}
	return
}

// Files returns the stored file paths of the registration.
func (registration *Registration) Files() []string {
	var files []string
	for _, f := range []string{registration.TransactionDocument, registration.ProfilePicture} {
		if f != "" {
			files = append(files, f)
		}
	}
	return files
}
