package db

import "gorm.io/gorm"

// Edit types.
const (
	EditTypeContent = "content"
	EditTypeRestore = "restore"
	EditTypeStatus  = "status"
)

// Version is an immutable numbered snapshot of an article's content.
// Numbers are contiguous from 1 per article; rows are never mutated.
type Version struct {
	gorm.Model
	ArticleID uint `gorm:"uniqueIndex:idx_versions_article_number;not null"`
	Article   Article
	Number    int    `gorm:"uniqueIndex:idx_versions_article_number;not null"`
	Content   string `gorm:"type:text"`
	EditID    uint   `gorm:"uniqueIndex;not null"`
	Edit      Edit
}

// Edit records the authorial action that produced exactly one Version.
type Edit struct {
	gorm.Model
	ArticleID uint `gorm:"index;not null"`
	UserID    uint `gorm:"not null"`
	User      User
	Content   string `gorm:"type:text"`
	Type      string `gorm:"size:20;default:'content';not null"`
	Summary   string
}

// Diff is a cached line-level comparison between two versions. The cache
// key is the ordered pair; (Y,X) is a separate entry from (X,Y) and is
// never derived by inverting the stored one.
type Diff struct {
	gorm.Model
	FromVersionID uint   `gorm:"uniqueIndex:idx_diffs_pair;not null"`
	ToVersionID   uint   `gorm:"uniqueIndex:idx_diffs_pair;not null"`
	Changes       string `gorm:"type:text"`
}

// Branch statuses.
const (
	BranchOpen      = "open"
	BranchMerged    = "merged"
	BranchAbandoned = "abandoned"
)

// Branch is an alternate working copy of an article rooted at a known
// ancestor version, merged back through a three-way line merge.
type Branch struct {
	gorm.Model
	ArticleID     uint   `gorm:"index;not null"`
	Name          string `gorm:"not null"`
	BaseVersionID uint   `gorm:"not null"`
	Content       string `gorm:"type:text"`
	Status        string `gorm:"size:20;default:'open';not null"`
	CreatorID     uint   `gorm:"not null"`
}
