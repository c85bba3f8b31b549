package models

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Category is the fixed set of genre tags a book can carry.
type Category string

const (
	CategoryAdventure Category = "Adventure"
	CategoryClassics  Category = "Classics"
	CategoryCrime     Category = "Crime"
	CategoryFantasy   Category = "Fantasy"
)

var Categories = []Category{CategoryAdventure, CategoryClassics, CategoryCrime, CategoryFantasy}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Book is stored and returned as-is. User holds the owner's ID and is set
// once at creation.
type Book struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Author      string    `json:"author"`
	Price       float64   `json:"price"`
	Category    Category  `json:"category"`
	User        string    `json:"user"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// BookPatch is a partial update. Nil fields are left untouched.
type BookPatch struct {
	Title       *string   `json:"title,omitempty" validate:"omitempty,min=1"`
	Description *string   `json:"description,omitempty" validate:"omitempty,min=1"`
	Author      *string   `json:"author,omitempty" validate:"omitempty,min=1"`
	Price       *float64  `json:"price,omitempty" validate:"omitempty,gte=0"`
	Category    *Category `json:"category,omitempty" validate:"omitempty,oneof=Adventure Classics Crime Fantasy"`
}

func (p BookPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Author == nil && p.Price == nil && p.Category == nil
}

// Apply copies the set fields of p onto b.
func (p BookPatch) Apply(b *Book) {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.Price != nil {
		b.Price = *p.Price
	}
	if p.Category != nil {
		b.Category = *p.Category
	}
}
