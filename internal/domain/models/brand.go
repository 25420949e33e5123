package models

import "time"

// Brand представляет бренд товара
type Brand struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"` // Название бренда (уникальное)
	Description string    `json:"description,omitempty"`
	Country     string    `json:"country,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
