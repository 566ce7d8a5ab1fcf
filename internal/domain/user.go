package domain

import "time"

// User represents a learner in the system. TotalStars is the running
// reward total and is only ever mutated through the store's CreditStars.
type User struct {
	ID         int       `json:"id"`
	Username   string    `json:"username"`
	Age        int       `json:"age"`
	TotalStars int       `json:"totalStars"`
	CreatedAt  time.Time `json:"createdAt"`
}

// InsertUser is the payload accepted when registering a new learner.
// The id, star total, and creation timestamp are server-assigned.
type InsertUser struct {
	Username string `json:"username" validate:"required,min=2,max=64"`
	Age      int    `json:"age" validate:"required,gte=2,lte=120"`
}

// Validate checks the payload against its schema constraints.
func (u InsertUser) Validate() error {
	return validateStruct(u)
}
