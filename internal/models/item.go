package models

import (
	"fmt"
	"time"
)

type Item struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:50;not null;uniqueIndex" json:"name"`
	Addresses []Address `gorm:"foreignKey:ItemID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"addresses,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i Item) PrimaryKey() uint { return i.ID }

func (i Item) String() string { return i.Name }

// Address belongs to at most one Item. ItemID is left NULL when the owning
// item is deleted.
type Address struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Street    string    `gorm:"size:55;not null;uniqueIndex" json:"street"`
	House     *int      `json:"house"`
	FrontDoor *int      `json:"front_door"`
	Apartment string    `gorm:"size:5" json:"apartment"`
	ItemID    *uint     `gorm:"index" json:"item_id"`
	Item      *Item     `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a Address) PrimaryKey() uint { return a.ID }

func (a Address) String() string {
	house := "None"
	if a.House != nil {
		house = fmt.Sprint(*a.House)
	}
	return fmt.Sprintf("<Street: %s, House: %s>", a.Street, house)
}
