package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Creation struct {
	Id        uuid.UUID      `gorm:"column:creation_id;type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    uuid.UUID      `gorm:"type:uuid;not null;index"`
	Workflow  *string        `gorm:"type:text"`
	Metadata  datatypes.JSON `gorm:"type:jsonb"`
	ImageURL  string         `gorm:"column:image_url;type:text;not null"`
	Status    string         `gorm:"type:varchar(50);not null;default:'active';index"`
	CreatedAt time.Time      `gorm:"column:created_date;autoCreateTime"`
}

func (Creation) TableName() string {
	return "creations"
}
