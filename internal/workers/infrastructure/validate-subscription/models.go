// internal/workers/infrastructure/validate-subscription/models.go
package validatesubscription

type Input struct {
	BusinessID string `json:"businessId"`
}

type Output struct {
	IsValid bool   `json:"isValid"`
	Plan    string `json:"plan"`
}
