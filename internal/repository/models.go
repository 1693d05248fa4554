package repository

// Models lists every GORM model, in foreign-key order, for AutoMigrate in
// development.
func Models() []interface{} {
	return []interface{}{
		&AccountModel{},
		&CategoryModel{},
		&TourModel{},
		&LedgerModel{},
		&BookingModel{},
	}
}
