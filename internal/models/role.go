package models

type Role struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:35;not null;uniqueIndex" json:"name"`
	Description string `gorm:"size:150" json:"description"`
	Users       []User `gorm:"many2many:roles_users;" json:"-"`
}

func (r Role) PrimaryKey() uint { return r.ID }

func (r Role) String() string { return r.Name }
