package models

// TableCount количество строк в таблице
type TableCount struct {
	Table string
	Rows  int64
}
