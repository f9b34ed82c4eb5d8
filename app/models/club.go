package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Club is an organizing club derived from the brevet catalog. Clubs are only
// ever upserted by club code; the sync pipeline never deletes them.
type Club struct {
	Code               string    `gorm:"primaryKey;type:varchar(32)" json:"code" validate:"required,max=32"`
	Name               *string   `gorm:"type:varchar(255)" json:"name"`
	Country            *string   `gorm:"type:varchar(200)" json:"country"`
	RepresentativeName *string   `gorm:"type:varchar(200)" json:"representative_name"`
	RepresentativeMail *string   `gorm:"type:varchar(200)" json:"representative_mail"`
	Website            *string   `gorm:"type:varchar(500)" json:"website"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Club) Validate() error {
	v := validator.New()

	return v.Struct(c)
}
