package models

import (
	"github.com/google/uuid"
)

// Dish is one item read off a menu. Dishes are built from model output and never
// edited afterwards; a retranslation produces new Dish values with new ids.
type Dish struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       string    `json:"price,omitempty"`
	Category    string    `json:"category,omitempty"`
	Ingredients []string  `json:"ingredients"`
	// RestrictionTags holds tag ids from the taxonomy, in the order the model returned them.
	RestrictionTags []string `json:"allergenIds"`
}

// NewDish creates a dish with a fresh id. Nil slices are stored as empty ones.
func NewDish(name, description, price, category string, ingredients, tags []string) Dish {
	return Dish{
		ID:              uuid.New(),
		Name:            name,
		Description:     description,
		Price:           price,
		Category:        category,
		Ingredients:     cloneStrings(ingredients),
		RestrictionTags: cloneStrings(tags),
	}
}

// HasTag reports whether the dish carries tag id.
func (d Dish) HasTag(id string) bool {
	for _, t := range d.RestrictionTags {
		if t == id {
			return true
		}
	}
	return false
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
