package team

import "gorm.io/gorm"

// Scope membatasi query ke satu tim.
func Scope(name string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("team = ?", name)
	}
}
