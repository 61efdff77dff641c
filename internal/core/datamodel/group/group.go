package group

import "time"

type Group struct {
	ID        int64     `gorm:"primaryKey" db:"id"`
	Name      string    `gorm:"column:name;not null" db:"name"`
	Currency  string    `gorm:"column:currency;size:3;not null" db:"currency"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" db:"created_at"`
}

func (Group) TableName() string {
	return "groups"
}

type UserGroup struct {
	ID        int64     `gorm:"primaryKey" db:"id"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex:idx_user_groups_member" db:"user_id"`
	GroupID   int64     `gorm:"column:group_id;not null;uniqueIndex:idx_user_groups_member" db:"group_id"`
	Role      string    `gorm:"column:role;not null" db:"role"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" db:"created_at"`
}

func (UserGroup) TableName() string {
	return "user_groups"
}
