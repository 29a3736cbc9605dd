package domain

import "time"

// Lead is a contact form submission.
type Lead struct {
	ID              string    `json:"id"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Email           string    `json:"email"`
	CompanyName     string    `json:"companyName"`
	RequiredService string    `json:"requiredService"`
	Details         string    `json:"details"`
	CreatedAt       time.Time `json:"createdAt"`
}
