package db

import "gorm.io/gorm"

// Article is a content unit with a canonical current text and a history of
// Versions. Content always mirrors the latest version after a successful
// update or restore.
type Article struct {
	gorm.Model
	Title       string `gorm:"not null"`
	Slug        string `gorm:"uniqueIndex;not null"`
	Content     string `gorm:"type:text"`
	Summary     string `gorm:"type:text"`
	Status      string `gorm:"size:32;default:'draft';not null"`
	IsPublished bool   `gorm:"default:false;not null"`
	IsArchived  bool   `gorm:"default:false;not null"`
	Views       int64  `gorm:"default:0;not null"`
	Likes       int64  `gorm:"default:0;not null"`
	AuthorID    uint
	Author      User
	Categories  []Category `gorm:"many2many:article_categories;"`
	Tags        []Tag      `gorm:"many2many:article_tags;"`
}

// Category groups articles by subject area.
type Category struct {
	gorm.Model
	Name     string    `gorm:"unique;not null"`
	Slug     string    `gorm:"uniqueIndex;not null"`
	Articles []Article `gorm:"many2many:article_categories;"`
}

// Tag is a free-form label attached to articles.
type Tag struct {
	gorm.Model
	Name     string    `gorm:"unique;not null"`
	Articles []Article `gorm:"many2many:article_tags;"`
}
