package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Supplier is a vendor products are bought from
type Supplier struct {
	ID        string         `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string         `json:"name" gorm:"type:varchar(255);not null"`
	Contact   string         `json:"contact" gorm:"type:varchar(255)"`
	Email     string         `json:"email" gorm:"type:varchar(255)"`
	Phone     string         `json:"phone" gorm:"type:varchar(50)"`
	Address   string         `json:"address" gorm:"type:text"`
	CreatedAt time.Time      `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updatedAt" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

func (Supplier) TableName() string {
	return "suppliers"
}

func (s *Supplier) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}
