package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EventStatus string

const (
	EventStatusUpcoming  EventStatus = "upcoming"
	EventStatusOngoing   EventStatus = "ongoing"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusUpcoming, EventStatusOngoing, EventStatusCompleted, EventStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether an event in status s may move to next.
func (s EventStatus) CanTransitionTo(next EventStatus) bool {
	if s == next || next == EventStatusCancelled {
		return true
	}
	switch s {
	case EventStatusUpcoming:
		return next == EventStatusOngoing || next == EventStatusCompleted
	case EventStatusOngoing:
		return next == EventStatusCompleted
	}
	return false
}

// AcceptsRegistrations reports whether new registrations may be created.
func (s EventStatus) AcceptsRegistrations() bool {
	return s == EventStatusUpcoming || s == EventStatusOngoing
}

type Event struct {
	ID                  uuid.UUID                         `gorm:"type:uuid;primary_key" json:"-"`
	EventID             string                            `gorm:"size:50;uniqueIndex;not null" json:"event_id"`
	Title               string                            `gorm:"size:200;not null" json:"title"`
	Description         string                            `gorm:"type:text" json:"description"`
	StartTime           time.Time                         `gorm:"not null" json:"start_time"`
	EndTime             time.Time                         `gorm:"not null" json:"end_time"`
	Location            string                            `gorm:"size:255" json:"location"`
	Status              EventStatus                       `gorm:"size:20;not null;default:upcoming" json:"status"`
	MediaFile           string                            `gorm:"size:255" json:"media_file"`
	AmountPerPerson     uint                              `gorm:"not null;default:0" json:"amount_per_person"`
	AmountPerAdultGuest uint                              `gorm:"not null;default:0" json:"amount_per_adult_guest"`
	AmountPerChildGuest uint                              `gorm:"not null;default:0" json:"amount_per_child_guest"`
	Bkash               datatypes.JSONType[WalletDetails] `json:"-"`
	Nagad               datatypes.JSONType[WalletDetails] `json:"-"`
	Rocket              datatypes.JSONType[WalletDetails] `json:"-"`
	Bank                datatypes.JSONType[BankDetails]   `json:"-"`
	CreatedAt           time.Time                         `json:"created_at"`
	UpdatedAt           time.Time                         `json:"updated_at"`
}

func (event *Event) BeforeCreate(tx *gorm.DB) (err error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return
}

// PaymentMethods returns the configured payment methods, leaving out empty
// ones.
func (event *Event) PaymentMethods() PaymentMethods {
	var methods PaymentMethods
	if w := event.Bkash.Data(); !w.IsEmpty() {
		methods.Bkash = &w
	}
	if w := event.Nagad.Data(); !w.IsEmpty() {
		methods.Nagad = &w
	}
	if w := event.Rocket.Data(); !w.IsEmpty() {
		methods.Rocket = &w
	}
	if b := event.Bank.Data(); !b.IsEmpty() {
		methods.Bank = &b
	}
	return methods
}
