package cache

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	ArticleKeyPrefix         = "article:%s"
	ArticleCommentsKeyPrefix = "article:%s:comments"
)

// DefaultTTL applies when the configured CACHE_TTL is zero.
const DefaultTTL = 5 * time.Minute

func ArticleKey(id uuid.UUID) string {
	return fmt.Sprintf(ArticleKeyPrefix, id)
}

func ArticleCommentsKey(articleID uuid.UUID) string {
	return fmt.Sprintf(ArticleCommentsKeyPrefix, articleID)
}
