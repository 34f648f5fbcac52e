package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	CLIENT_STATUS_ACTIVE   = "active"
	CLIENT_STATUS_ARCHIVED = "archived"
)

// Client is the person an appointment is booked for. Clients are resolved by
// email when a booking webhook arrives and created on the fly if unknown.
type Client struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(150)" json:"name" validate:"max=150"`
	Email     string         `gorm:"uniqueIndex;type:varchar(200) CHARACTER SET utf8 COLLATE utf8_bin" json:"email" validate:"required,email,min=5,max=200"`
	Phone     string         `gorm:"type:varchar(50);default:null" json:"phone" validate:"max=50"`
	Status    string         `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active archived"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Client) Validate() error {
	v := validator.New()

	return v.Struct(c)
}
