package repository

import (
	"strings"
	"time"

	"blog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultSort is applied when a list request carries no sort expression.
const DefaultSort = "createdDate desc"

// ArticleFilter holds the optional article search predicates. A nil field
// adds no constraint.
type ArticleFilter struct {
	Title        *string
	Author       *string
	CreatedAfter *time.Time
	Category     *string
}

// SortOrder is one ORDER BY term.
type SortOrder struct {
	Field string
	Desc  bool
}

// PageRequest selects a zero-based page of Size rows.
type PageRequest struct {
	Size int
	Page int
}

func (p PageRequest) Offset() int {
	return p.Size * p.Page
}

// sortColumns maps API field names to article columns. Fields not listed
// are passed to the database as-is.
var sortColumns = map[string]string{
	"id":          "id",
	"title":       "title",
	"content":     "content",
	"summary":     "summary",
	"category":    "category",
	"createdDate": "created_date",
	"updatedDate": "updated_date",
	"imageUrl":    "image_url",
}

// ParseSort parses "field[ dir][, field[ dir]]...". Direction is asc or desc
// in any case and defaults to asc. An empty expression yields DefaultSort.
func ParseSort(expr string) ([]SortOrder, error) {
	if strings.TrimSpace(expr) == "" {
		expr = DefaultSort
	}

	var orders []SortOrder
	for _, token := range strings.Split(expr, ",") {
		parts := strings.Fields(token)
		if len(parts) == 0 {
			continue
		}
		order := SortOrder{Field: parts[0]}
		if len(parts) > 1 {
			switch strings.ToLower(parts[1]) {
			case "asc":
			case "desc":
				order.Desc = true
			default:
				return nil, models.NewValidationError("Invalid sort direction: " + parts[1])
			}
		}
		if len(parts) > 2 {
			return nil, models.NewValidationError("Invalid sort expression: " + strings.TrimSpace(token))
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// Column returns the database column for the sort field.
func (o SortOrder) Column() string {
	if col, ok := sortColumns[o.Field]; ok {
		return col
	}
	return o.Field
}

// ArticleScopes composes the filter into GORM scopes, ANDed together.
func ArticleScopes(f ArticleFilter) []func(*gorm.DB) *gorm.DB {
	var scopes []func(*gorm.DB) *gorm.DB
	if f.Title != nil {
		title := *f.Title
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("LOWER(articles.title) = LOWER(?)", title)
		})
	}
	if f.Author != nil {
		author := *f.Author
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("articles.author_id IN (?)",
				db.Session(&gorm.Session{NewDB: true}).Model(&models.User{}).
					Select("id").
					Where("LOWER(username) = LOWER(?)", author))
		})
	}
	if f.CreatedAfter != nil {
		after := *f.CreatedAfter
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("articles.created_date >= ?", after)
		})
	}
	if f.Category != nil {
		category := *f.Category
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("articles.category = ?", category)
		})
	}
	return scopes
}

// OrderScope applies the sort terms in order.
func OrderScope(orders []SortOrder) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, o := range orders {
			db = db.Order(clause.OrderByColumn{
				Column: clause.Column{Table: "articles", Name: o.Column()},
				Desc:   o.Desc,
			})
		}
		return db
	}
}

// PageScope applies LIMIT/OFFSET. Size is not capped; Size <= 0 means no limit.
func PageScope(p PageRequest) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if p.Size <= 0 {
			return db
		}
		return db.Limit(p.Size).Offset(p.Offset())
	}
}
