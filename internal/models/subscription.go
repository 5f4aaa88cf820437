// internal/models/subscription.go
package models

type BusinessSubscription struct {
	BusinessID string `json:"businessId"`
	Plan       string `json:"plan"`
	ExpiresAt  string `json:"expiresAt"`
	IsActive   bool   `json:"isActive"`
}
