package models

import "time"

// Category представляет категорию товара
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"` // Название категории (уникальное)
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
