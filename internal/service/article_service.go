package service

import (
	"errors"
	"strings"
	"unicode"

	"github.com/afrowiki/internal/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrArticleNotFound  = errors.New("article not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrTitleRequired    = errors.New("title is required")
	ErrCategoryNotFound = errors.New("category not found")
	ErrTagNotFound      = errors.New("tag not found")
)

// ArticleService wraps article related database operations.
type ArticleService struct {
	db *gorm.DB
}

// ArticleFilter describes filters for listing articles.
type ArticleFilter struct {
	Search        string
	Status        string
	CategoryNames []string
	TagNames      []string
	AuthorID      uint
	Page          int
	PerPage       int
}

// ArticleListResult aggregates paginated list data and counters.
type ArticleListResult struct {
	Articles       []db.Article
	Total          int64
	PublishedCount int64
	DraftCount     int64
	TotalPages     int
	Page           int
	PerPage        int
}

// ArticleInput represents fields accepted when creating an article.
type ArticleInput struct {
	Title       string
	Content     string
	Summary     string
	CategoryIDs []uint
	TagIDs      []uint
	AuthorID    uint
}

// NewArticleService creates an ArticleService instance.
func NewArticleService(gdb *gorm.DB) *ArticleService {
	return &ArticleService{db: gdb}
}

// Create persists an article with its first version and associates
// categories and tags, all in one transaction.
func (s *ArticleService) Create(input ArticleInput) (*db.Article, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if input.Content == "" {
		return nil, ErrContentRequired
	}

	article := db.Article{
		Title:    title,
		Content:  input.Content,
		Summary:  strings.TrimSpace(input.Summary),
		Status:   db.StatusDraft,
		AuthorID: input.AuthorID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		slug, err := s.uniqueSlug(tx, title)
		if err != nil {
			return err
		}
		article.Slug = slug

		if err := tx.Create(&article).Error; err != nil {
			return err
		}

		if err := s.replaceAssociations(tx, &article, input.CategoryIDs, input.TagIDs); err != nil {
			return err
		}

		if _, err := writeVersion(tx, &article, input.AuthorID, versionWrite{
			Content:     input.Content,
			EditType:    db.EditTypeContent,
			EditSummary: "Initial version",
		}); err != nil {
			return err
		}

		return writeAudit(tx, input.AuthorID, "article_created", db.TargetArticle, article.ID, map[string]any{
			"title": title,
			"slug":  article.Slug,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.Get(article.ID)
}

// Get fetches an article by id with associations preloaded.
func (s *ArticleService) Get(id uint) (*db.Article, error) {
	var article db.Article
	if err := s.db.Preload("Author").Preload("Categories").Preload("Tags").
		First(&article, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	return &article, nil
}

// GetBySlug fetches an article by its slug.
func (s *ArticleService) GetBySlug(slug string) (*db.Article, error) {
	var article db.Article
	if err := s.db.Preload("Author").Preload("Categories").Preload("Tags").
		Where("slug = ?", slug).First(&article).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	return &article, nil
}

// UpdateFields patches title, summary, categories and tags without touching
// content; content changes go through the version writer.
func (s *ArticleService) UpdateFields(id, userID uint, title, summary *string, categoryIDs, tagIDs []uint) (*db.Article, error) {
	article, user, err := s.loadForWrite(id, userID)
	if err != nil {
		return nil, err
	}
	if err := authorizeArticleWrite(user, article); err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{}
		if title != nil {
			trimmed := strings.TrimSpace(*title)
			if trimmed == "" {
				return ErrTitleRequired
			}
			updates["title"] = trimmed
		}
		if summary != nil {
			updates["summary"] = strings.TrimSpace(*summary)
		}
		if len(updates) > 0 {
			if err := tx.Model(article).Updates(updates).Error; err != nil {
				return err
			}
		}

		if err := s.replaceAssociations(tx, article, categoryIDs, tagIDs); err != nil {
			return err
		}

		return writeAudit(tx, userID, "article_updated", db.TargetArticle, article.ID, updates)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(id)
}

// List provides paginated articles with aggregated counters based on filters.
func (s *ArticleService) List(filter ArticleFilter) (*ArticleListResult, error) {
	result := &ArticleListResult{Page: filter.Page, PerPage: filter.PerPage}
	if result.Page <= 0 {
		result.Page = 1
	}
	if result.PerPage <= 0 {
		result.PerPage = 10
	}

	modelQuery := s.applyFilters(s.db.Model(&db.Article{}), filter, true)
	if err := modelQuery.Count(&result.Total).Error; err != nil {
		return nil, err
	}

	offset := (result.Page - 1) * result.PerPage
	dataQuery := s.applyFilters(
		s.db.Model(&db.Article{}).Preload("Author").Preload("Categories").Preload("Tags"),
		filter, true)
	if err := dataQuery.Order("articles.updated_at desc").
		Limit(result.PerPage).Offset(offset).
		Find(&result.Articles).Error; err != nil {
		return nil, err
	}

	filterWithoutStatus := filter
	filterWithoutStatus.Status = ""

	// Separate query per counter; reusing one chain would stack the
	// status conditions.
	publishedQuery := s.applyFilters(s.db.Model(&db.Article{}), filterWithoutStatus, false)
	if err := publishedQuery.Where("articles.is_published = ?", true).
		Count(&result.PublishedCount).Error; err != nil {
		return nil, err
	}
	draftQuery := s.applyFilters(s.db.Model(&db.Article{}), filterWithoutStatus, false)
	if err := draftQuery.Where("articles.status = ?", db.StatusDraft).
		Count(&result.DraftCount).Error; err != nil {
		return nil, err
	}

	if result.Total == 0 {
		result.TotalPages = 1
	} else {
		result.TotalPages = int((result.Total + int64(result.PerPage) - 1) / int64(result.PerPage))
	}
	return result, nil
}

// IncrementViews bumps the view counter.
func (s *ArticleService) IncrementViews(id uint) error {
	res := s.db.Model(&db.Article{}).Where("id = ?", id).
		Update("views", gorm.Expr("views + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrArticleNotFound
	}
	return nil
}

// IncrementLikes bumps the like counter.
func (s *ArticleService) IncrementLikes(id uint) error {
	res := s.db.Model(&db.Article{}).Where("id = ?", id).
		Update("likes", gorm.Expr("likes + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrArticleNotFound
	}
	return nil
}

// Related returns published articles sharing a category or tag with the
// given one, most recently updated first.
func (s *ArticleService) Related(id uint, limit int) ([]db.Article, error) {
	if limit <= 0 {
		limit = 5
	}

	article, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	categoryIDs := make([]uint, 0, len(article.Categories))
	for _, c := range article.Categories {
		categoryIDs = append(categoryIDs, c.ID)
	}
	tagIDs := make([]uint, 0, len(article.Tags))
	for _, t := range article.Tags {
		tagIDs = append(tagIDs, t.ID)
	}
	if len(categoryIDs) == 0 && len(tagIDs) == 0 {
		return []db.Article{}, nil
	}

	byCategory := s.db.Model(&db.Article{}).
		Select("articles.id").
		Joins("JOIN article_categories ON articles.id = article_categories.article_id").
		Where("article_categories.category_id IN ?", categoryIDs)
	byTag := s.db.Model(&db.Article{}).
		Select("articles.id").
		Joins("JOIN article_tags ON articles.id = article_tags.article_id").
		Where("article_tags.tag_id IN ?", tagIDs)

	var related []db.Article
	query := s.db.Preload("Author").
		Where("articles.id <> ? AND articles.is_published = ?", id, true)
	switch {
	case len(categoryIDs) > 0 && len(tagIDs) > 0:
		query = query.Where("articles.id IN (?) OR articles.id IN (?)", byCategory, byTag)
	case len(categoryIDs) > 0:
		query = query.Where("articles.id IN (?)", byCategory)
	default:
		query = query.Where("articles.id IN (?)", byTag)
	}
	if err := query.Order("articles.updated_at desc").Limit(limit).Find(&related).Error; err != nil {
		return nil, err
	}
	return related, nil
}

// Random returns one random published article.
func (s *ArticleService) Random() (*db.Article, error) {
	var article db.Article
	if err := s.db.Preload("Author").Preload("Categories").Preload("Tags").
		Where("is_published = ?", true).
		Order("RANDOM()").
		First(&article).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	return &article, nil
}

func (s *ArticleService) loadForWrite(articleID, userID uint) (*db.Article, *db.User, error) {
	var article db.Article
	if err := s.db.First(&article, articleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrArticleNotFound
		}
		return nil, nil, err
	}

	var user db.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, err
	}
	return &article, &user, nil
}

func (s *ArticleService) replaceAssociations(tx *gorm.DB, article *db.Article, categoryIDs, tagIDs []uint) error {
	if categoryIDs != nil {
		var categories []db.Category
		if len(categoryIDs) > 0 {
			if err := tx.Where("id IN ?", categoryIDs).Find(&categories).Error; err != nil {
				return err
			}
			if len(categories) != len(categoryIDs) {
				return ErrCategoryNotFound
			}
		}
		if err := tx.Model(article).Association("Categories").Replace(categories); err != nil {
			return err
		}
	}

	if tagIDs != nil {
		var tags []db.Tag
		if len(tagIDs) > 0 {
			if err := tx.Where("id IN ?", tagIDs).Find(&tags).Error; err != nil {
				return err
			}
			if len(tags) != len(tagIDs) {
				return ErrTagNotFound
			}
		}
		if err := tx.Model(article).Association("Tags").Replace(tags); err != nil {
			return err
		}
	}

	return nil
}

func (s *ArticleService) applyFilters(query *gorm.DB, filter ArticleFilter, includeStatus bool) *gorm.DB {
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		query = query.Where(
			"(articles.title LIKE ? OR articles.content LIKE ? OR articles.summary LIKE ?)",
			search, search, search)
	}

	if includeStatus && filter.Status != "" {
		query = query.Where("articles.status = ?", filter.Status)
	}

	if filter.AuthorID != 0 {
		query = query.Where("articles.author_id = ?", filter.AuthorID)
	}

	if len(filter.CategoryNames) > 0 {
		subQuery := s.db.Model(&db.Article{}).
			Select("articles.id").
			Joins("JOIN article_categories ON articles.id = article_categories.article_id").
			Joins("JOIN categories ON categories.id = article_categories.category_id").
			Where("categories.name IN ?", filter.CategoryNames).
			Distinct()
		query = query.Where("articles.id IN (?)", subQuery)
	}

	if len(filter.TagNames) > 0 {
		subQuery := s.db.Model(&db.Article{}).
			Select("articles.id").
			Joins("JOIN article_tags ON articles.id = article_tags.article_id").
			Joins("JOIN tags ON tags.id = article_tags.tag_id").
			Where("tags.name IN ?", filter.TagNames).
			Distinct()
		query = query.Where("articles.id IN (?)", subQuery)
	}

	return query
}

// uniqueSlug derives a url-safe slug from the title, appending a short
// random fragment when the plain slug is taken.
func (s *ArticleService) uniqueSlug(tx *gorm.DB, title string) (string, error) {
	base := Slugify(title)
	if base == "" {
		base = "article"
	}

	var count int64
	if err := tx.Model(&db.Article{}).Where("slug = ?", base).Count(&count).Error; err != nil {
		return "", err
	}
	if count == 0 {
		return base, nil
	}

	return base + "-" + uuid.New().String()[:8], nil
}

// Slugify lowercases the title and replaces every non-alphanumeric run
// with a single hyphen.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
