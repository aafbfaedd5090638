// Package dto maps persisted models to the JSON shapes returned by the API.
// Nesting is one level deep: a comment's article never carries comments.
package dto

import (
	"time"

	"blog/internal/models"

	"github.com/google/uuid"
)

// User is the public view of a user. The password hash is never exposed.
type User struct {
	ID             uuid.UUID   `json:"id"`
	LastName       string      `json:"lastName"`
	FirstName      string      `json:"firstName"`
	Username       string      `json:"username"`
	Email          string      `json:"email"`
	ProfilePicture string      `json:"profilePicture,omitempty"`
	Categories     []string    `json:"categories"`
	Role           models.Role `json:"role"`
	CreatedDate    time.Time   `json:"createdDate"`
}

type Article struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Summary     string    `json:"summary"`
	CreatedDate time.Time `json:"createdDate"`
	UpdatedDate time.Time `json:"updatedDate"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	MediaURLs   []string  `json:"mediaUrls"`
	CropX       *float64  `json:"cropX,omitempty"`
	CropY       *float64  `json:"cropY,omitempty"`
	CropWidth   *float64  `json:"cropWidth,omitempty"`
	CropHeight  *float64  `json:"cropHeight,omitempty"`
	CropScale   *float64  `json:"cropScale,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Author      *User     `json:"author,omitempty"`
	Editor      *User     `json:"editor,omitempty"`
}

type Comment struct {
	ID          uuid.UUID `json:"id"`
	Content     string    `json:"content"`
	DateCreated time.Time `json:"dateCreated"`
	DateEdited  time.Time `json:"dateEdited"`
	Article     *Article  `json:"article,omitempty"`
	Author      *User     `json:"author,omitempty"`
	Editor      *User     `json:"editor,omitempty"`
}

// TokenResponse is returned by register and login.
type TokenResponse struct {
	Token string `json:"token"`
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func ToUser(u *models.User) *User {
	if u == nil {
		return nil
	}
	return &User{
		ID:             u.ID,
		LastName:       u.LastName,
		FirstName:      u.FirstName,
		Username:       u.Username,
		Email:          u.Email,
		ProfilePicture: u.ProfilePicture,
		Categories:     nonNil(u.Categories),
		Role:           u.Role,
		CreatedDate:    u.CreatedDate,
	}
}

func ToUsers(users []models.User) []User {
	out := make([]User, 0, len(users))
	for i := range users {
		out = append(out, *ToUser(&users[i]))
	}
	return out
}

// ToArticle converts a with its preloaded author and editor. Unloaded
// associations are left out of the result.
func ToArticle(a *models.Article) *Article {
	if a == nil {
		return nil
	}
	return &Article{
		ID:          a.ID,
		Title:       a.Title,
		Content:     a.Content,
		Summary:     a.Summary,
		CreatedDate: a.CreatedDate,
		UpdatedDate: a.UpdatedDate,
		ImageURL:    a.ImageURL,
		MediaURLs:   nonNil(a.MediaURLs),
		CropX:       a.CropX,
		CropY:       a.CropY,
		CropWidth:   a.CropWidth,
		CropHeight:  a.CropHeight,
		CropScale:   a.CropScale,
		Category:    a.Category,
		Author:      ToUser(a.Author),
		Editor:      ToUser(a.Editor),
	}
}

func ToArticles(articles []models.Article) []Article {
	out := make([]Article, 0, len(articles))
	for i := range articles {
		out = append(out, *ToArticle(&articles[i]))
	}
	return out
}

func ToComment(c *models.Comment) *Comment {
	if c == nil {
		return nil
	}
	return &Comment{
		ID:          c.ID,
		Content:     c.Content,
		DateCreated: c.DateCreated,
		DateEdited:  c.DateEdited,
		Article:     ToArticle(c.Article),
		Author:      ToUser(c.Author),
		Editor:      ToUser(c.Editor),
	}
}

func ToComments(comments []models.Comment) []Comment {
	out := make([]Comment, 0, len(comments))
	for i := range comments {
		out = append(out, *ToComment(&comments[i]))
	}
	return out
}
