package models

import "time"

// Snapshot stores one user's serialized state container (cart, wishlist, recent searches).
type Snapshot struct {
	UserID    string    `gorm:"column:user_id;primaryKey;size:128"`
	Kind      string    `gorm:"column:kind;primaryKey;size:32"`
	Payload   string    `gorm:"column:payload;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (Snapshot) TableName() string {
	return "storefront_snapshots"
}
