package database

import (
	"github.com/frahmantamala/group-expenses/internal/pagination"
	"gorm.io/gorm"
)

// Paginate is a gorm scope applying a pagination window ordered by id.
// since_id windows return every row after the id, unbounded.
func Paginate(p pagination.Params) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Order("id ASC")
		if p.UsesSinceID() {
			return db.Where("id > ?", p.SinceID)
		}
		return db.Offset(p.Offset()).Limit(p.Limit())
	}
}
