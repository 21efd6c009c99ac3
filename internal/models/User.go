package models

import "gorm.io/gorm"

type User struct {
	gorm.Model
	Name     string `json:"name"`
	Email    string `json:"email" gorm:"unique"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Role     string `json:"role"` // "admin", "provincial_agriculturist", "municipal_agriculturist"

	// Municipal agriculturists only see violations touching their municipality
	Municipality string `json:"municipality"`
}
