package models

import (
	"time"
)

type Blog struct {
	ID          string      `json:"id" gorm:"primaryKey;type:text"`
	Title       string      `json:"title" gorm:"type:text;not null"`
	Description string      `json:"description" gorm:"type:text"`
	BannerImage string      `json:"banner_image" gorm:"type:text"`
	Content     []BlogBlock `json:"content" gorm:"type:jsonb;serializer:json"`
	Type        *string     `json:"type" gorm:"type:text;index"`
	CreatedAt   time.Time   `json:"created_at" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp();index"`
}

type BlogBlock struct {
	Title          string `json:"title,omitempty"`
	Description    string `json:"description"`
	ReferenceImage string `json:"referenceImage,omitempty"`
}

type Publication struct {
	ID          string    `json:"id" gorm:"primaryKey;type:text"`
	Title       string    `json:"title" gorm:"type:text;not null"`
	Description string    `json:"description" gorm:"type:text"`
	BannerImage string    `json:"banner_image" gorm:"type:text"`
	FilePath    string    `json:"file_path" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp();index"`
}

type Contact struct {
	ID              string    `json:"id" gorm:"primaryKey;type:text"`
	FirstName       string    `json:"first_name" gorm:"type:text;not null"`
	LastName        string    `json:"last_name" gorm:"type:text"`
	Email           string    `json:"email" gorm:"type:text;not null;index"`
	CompanyName     string    `json:"company_name" gorm:"type:text"`
	RequiredService string    `json:"required_service" gorm:"type:text"`
	Details         string    `json:"details" gorm:"type:text"`
	CreatedAt       time.Time `json:"created_at" gorm:"type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type Solution struct {
	ID    string `json:"id" gorm:"primaryKey;type:text"`
	Title string `json:"title" gorm:"type:text;not null;uniqueIndex"`
	Order int    `json:"order" gorm:"type:integer;default:0"`
}
