package pricing

// Completion reports whether every visible field has an answer.
type Completion struct {
	IsCompleted   bool     `json:"isCompleted"`
	MissingFields []string `json:"missingFields"`
}

// CheckCompletion lists the display names of visible fields without an
// answer. Hidden fields never block completion.
func CheckCompletion(fields []Field, values Values) Completion {
	missing := []string{}
	for _, f := range VisibleFields(fields, values) {
		if !isFilled(values[f.ID]) {
			missing = append(missing, f.DisplayName())
		}
	}
	return Completion{
		IsCompleted:   len(missing) == 0,
		MissingFields: missing,
	}
}
