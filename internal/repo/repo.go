package repo

import "gorm.io/gorm"

// GormRepo owns no connection lifecycle: the handle is opened and closed by the caller.
type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}
