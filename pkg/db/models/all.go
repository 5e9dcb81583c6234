package models

// All lists every persisted model, parents before children.
func All() []any {
	return []any{
		&Employee{},
		&Category{},
		&MasterItem{},
		&Assignment{},
		&AuditEntry{},
		&StockMovement{},
		&Setting{},
	}
}
