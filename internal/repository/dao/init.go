package dao

import "gorm.io/gorm"

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Profile{},
		&UserRole{},
		&UserSuspension{},
		&CompetitionWeek{},
		&WeekParticipant{},
		&ChatMessage{},
		&CoinTopup{},
		&CoinLedgerEntry{},
		&VoteOrder{},
	)
}
