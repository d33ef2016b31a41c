package models

// RolloverMarker is the single persisted scheduler row. The stored
// month/year/day are compared against the wall clock on every tick so
// calendar rollovers fire exactly once even across restarts or missed
// ticks. Hour is the wrapping [1,24] counter frequencies are matched
// against.
type RolloverMarker struct {
	ID    int `gorm:"primaryKey"`
	Hour  int `gorm:"not null"`
	Day   int `gorm:"not null"`
	Month int `gorm:"not null"`
	Year  int `gorm:"not null"`
}

// All returns every model registered for migration.
func All() []any {
	return []any{
		&Credential{},
		&Activity{},
		&DailyActivity{},
		&UserGroupStat{},
		&Membership{},
		&RoleAssignment{},
		&GroupSettings{},
		&Route{},
		&RolloverMarker{},
	}
}
