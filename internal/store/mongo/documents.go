package mongo

import (
	"fmt"
	"time"

	"github.com/shelfwise/bookstore/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type userDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	Role      string             `bson:"role"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

type bookDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Author      string             `bson:"author"`
	Price       float64            `bson:"price"`
	Category    string             `bson:"category"`
	User        primitive.ObjectID `bson:"user"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func objectID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid object id %q: %w", hex, err)
	}
	return id, nil
}

func newUserDocument(u *models.User) (userDocument, error) {
	id, err := objectID(u.ID)
	if err != nil {
		return userDocument{}, err
	}
	return userDocument{
		ID:        id,
		Name:      u.Name,
		Email:     u.Email,
		Password:  u.PasswordHash,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}, nil
}

func (d userDocument) model() *models.User {
	return &models.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.Password,
		Role:         models.Role(d.Role),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func newBookDocument(b *models.Book) (bookDocument, error) {
	id, err := objectID(b.ID)
	if err != nil {
		return bookDocument{}, err
	}
	owner, err := objectID(b.User)
	if err != nil {
		return bookDocument{}, err
	}
	return bookDocument{
		ID:          id,
		Title:       b.Title,
		Description: b.Description,
		Author:      b.Author,
		Price:       b.Price,
		Category:    string(b.Category),
		User:        owner,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}, nil
}

func (d bookDocument) model() models.Book {
	return models.Book{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Author:      d.Author,
		Price:       d.Price,
		Category:    models.Category(d.Category),
		User:        d.User.Hex(),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}
