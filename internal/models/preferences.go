package models

// Preferences holds per-user log table display settings.
type Preferences struct {
	VisibleColumns []string       `json:"visibleColumns"`
	ColumnWidths   map[string]int `json:"columnWidths"`
}

// DefaultVisibleColumns are shown when a user has not saved preferences.
var DefaultVisibleColumns = []string{"timestamp", "level", "source", "message", "actions"}

// DefaultPreferences returns the preferences used for users without saved settings.
func DefaultPreferences() *Preferences {
	cols := make([]string, len(DefaultVisibleColumns))
	copy(cols, DefaultVisibleColumns)
	return &Preferences{
		VisibleColumns: cols,
		ColumnWidths:   map[string]int{},
	}
}

// Normalize fills nil collections so the JSON form is stable.
func (p *Preferences) Normalize() {
	if p.VisibleColumns == nil {
		p.VisibleColumns = []string{}
	}
	if p.ColumnWidths == nil {
		p.ColumnWidths = map[string]int{}
	}
}
