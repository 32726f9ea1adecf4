// internal/models/document.go
package models

import (
	"time"
)

// Document is the metadata row for one uploaded file. The bytes live in the
// document storage under Filename.
type Document struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Filename   string    `json:"filename" gorm:"size:300;not null"`
	Department string    `json:"department" gorm:"size:100;not null"`
	Category   string    `json:"category" gorm:"size:100;not null"`
	UploadDate time.Time `json:"upload_date" gorm:"autoCreateTime;index"`
}
