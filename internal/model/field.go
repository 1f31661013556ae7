package model

import "time"

// Field спортивная площадка, которой управляет менеджер
type Field struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	SportType    string    `json:"sport_type"`
	City         string    `json:"city"`
	ManagerID    string    `json:"manager_id"` // username менеджера
	PricePerHour float64   `json:"price_per_hour"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsManagedBy проверяет что поле принадлежит менеджеру
func (f *Field) IsManagedBy(username string) bool {
	return f.ManagerID == username
}
