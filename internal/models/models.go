package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// User represents a registered account, either a citizen or a government worker.
type User struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
	FirstName          string         `gorm:"not null" json:"first_name"`
	LastName           string         `gorm:"not null" json:"last_name"`
	Patronymic         string         `json:"patronymic"`
	Email              string         `gorm:"not null;uniqueIndex" json:"email"`
	Password           string         `gorm:"not null" json:"-"`
	IsGovernmentWorker bool           `gorm:"not null;default:false" json:"is_government_worker"`
	Locale             string         `gorm:"not null;default:'ru'" json:"locale"`
}

// GovStructure represents a government organizational entity that hosts events.
type GovStructure struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Name        string         `gorm:"not null" json:"name"`
	Description *string        `gorm:"type:text" json:"description"`
	Email       string         `gorm:"not null" json:"email"`
	Address     *string        `json:"address"`
	Events      []Event        `gorm:"foreignKey:GovStructureID;constraint:OnDelete:CASCADE" json:"-"`
}

// Event represents an event hosted by a government structure.
//
// IsActive distinguishes a live event from a cancelled one. Cancelled
// events keep their row so a later reactivation can notify subscribers.
type Event struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt      time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
	Name           string       `gorm:"not null" json:"name"`
	Description    *string      `gorm:"type:text" json:"description"`
	Address        *string      `json:"address"`
	Datetime       time.Time    `gorm:"not null;index" json:"datetime"`
	GovStructureID uuid.UUID    `gorm:"type:uuid;not null;index" json:"gov_structure_id"`
	IsActive       bool         `gorm:"not null;default:true" json:"is_active"`
	GovStructure   GovStructure `gorm:"foreignKey:GovStructureID" json:"-"`
}

// EventSubscription subscribes a user to one specific event.
type EventSubscription struct {
	EventID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"event_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	Event     Event     `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"-"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// GovStructureSubscription subscribes a user to every event hosted by a structure.
type GovStructureSubscription struct {
	GovStructureID uuid.UUID    `gorm:"type:uuid;primaryKey" json:"gov_structure_id"`
	UserID         uuid.UUID    `gorm:"type:uuid;primaryKey" json:"user_id"`
	CreatedAt      time.Time    `gorm:"autoCreateTime" json:"created_at"`
	GovStructure   GovStructure `gorm:"foreignKey:GovStructureID;constraint:OnDelete:CASCADE" json:"-"`
	User           User         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// SetupModels configures GORM models and runs migrations
func SetupModels(db *gorm.DB) error {
	err := db.AutoMigrate(
		&User{},
		&GovStructure{},
		&Event{},
		&EventSubscription{},
		&GovStructureSubscription{},
	)
	if err != nil {
		return errors.Wrap(err, "failed to run auto migrations")
	}

	return nil
}
