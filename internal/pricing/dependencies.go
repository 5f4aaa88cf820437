package pricing

// AvailableDependencies lists the fields a rule on field may depend on: every
// earlier field that has no enabled rule of its own. Excluding conditional
// candidates keeps dependency chains one level deep. A field that is not in
// all yet (still being authored) may depend on any unconditional field.
func AvailableDependencies(field Field, all []Field) []Field {
	end := len(all)
	for i, f := range all {
		if f.ID == field.ID {
			end = i
			break
		}
	}

	out := []Field{}
	for _, f := range all[:end] {
		if f.ConditionalLogic != nil && f.ConditionalLogic.Enabled {
			continue
		}
		out = append(out, f)
	}
	return out
}

// ValidateFields enforces the ordering invariant of a field list: ids are
// unique formula identifiers, and every enabled rule depends on a field that
// appears earlier in the list. That rules out forward references and cycles.
func ValidateFields(fields []Field) error {
	seen := make(map[string]int, len(fields))
	for i, f := range fields {
		if f.ID == "" {
			return &DefinitionError{Reason: "empty field id"}
		}
		if !isIdentifier(f.ID) {
			return &DefinitionError{FieldID: f.ID, Reason: "field id is not a valid formula identifier"}
		}
		if _, dup := seen[f.ID]; dup {
			return &DefinitionError{FieldID: f.ID, Reason: "duplicate field id"}
		}
		seen[f.ID] = i
	}

	for i, f := range fields {
		if !f.hasRule() {
			continue
		}
		dep := f.ConditionalLogic.DependsOnVariable
		j, ok := seen[dep]
		switch {
		case dep == f.ID:
			return &DefinitionError{FieldID: f.ID, DependsOn: dep, Reason: "field cannot depend on itself"}
		case !ok:
			return &DefinitionError{FieldID: f.ID, DependsOn: dep, Reason: "unknown field"}
		case j > i:
			return &DefinitionError{FieldID: f.ID, DependsOn: dep, Reason: "dependency must appear earlier in the form"}
		}
	}
	return nil
}

// isIdentifier reports whether id lexes as a single identifier token, so a
// formula can reference it.
func isIdentifier(id string) bool {
	if id == "" || !isIdentStart(id[0]) {
		return false
	}
	for i := 1; i < len(id); i++ {
		if !isIdentStart(id[i]) && !isDigit(id[i]) {
			return false
		}
	}
	return true
}
