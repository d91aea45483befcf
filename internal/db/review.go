package db

import "gorm.io/gorm"

// Review types.
const (
	ReviewTechnical = "technical"
	ReviewEditorial = "editorial"
	ReviewCultural  = "cultural"
	ReviewFactual   = "factual"
	ReviewFinal     = "final"
)

// Review statuses.
const (
	ReviewUnassigned = "unassigned"
	ReviewInProgress = "in_progress"
	ReviewCompleted  = "completed"
)

// Review is one unit of moderation work of a given type against an
// article, claimable by sufficiently reputable users.
type Review struct {
	gorm.Model
	ArticleID  uint `gorm:"index;not null"`
	Article    Article
	Type       string `gorm:"size:20;not null"`
	Status     string `gorm:"size:20;default:'unassigned';not null"`
	AssigneeID *uint
	Assignee   *User `gorm:"foreignKey:AssigneeID"`
	Score      int
	Feedback   string `gorm:"type:text"`
}

// ValidReviewType reports whether t names a known review type.
func ValidReviewType(t string) bool {
	switch t {
	case ReviewTechnical, ReviewEditorial, ReviewCultural, ReviewFactual, ReviewFinal:
		return true
	}
	return false
}
