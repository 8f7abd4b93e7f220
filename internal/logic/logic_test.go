package logic

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/pqlammy/Gennerweb-sub000/internal/config"
	"github.com/pqlammy/Gennerweb-sub000/internal/crypto"
	"github.com/pqlammy/Gennerweb-sub000/internal/model"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Contribution{}, &model.Settlement{}, &model.LoginLog{}); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	return db
}

func testKey(t *testing.T) []byte {
	t.Helper()
	key, err := crypto.KeyFromSecret("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("derive key: %v", err)
	}
	return key
}

func defaultPolicy() config.FieldPolicy {
	return config.FieldPolicy{
		Email:      config.FieldRequired,
		Address:    config.FieldOptional,
		City:       config.FieldOptional,
		PostalCode: config.FieldOptional,
		Phone:      config.FieldOptional,
	}
}

func sampleInput() *ContributionInput {
	return &ContributionInput{
		Amount:        20,
		FirstName:     "Hans",
		LastName:      "Muster",
		Email:         "hans.muster@example.ch",
		Address:       "Bahnhofstrasse 12",
		City:          "Solothurn",
		PostalCode:    "4500",
		Phone:         "+41 79 123 45 67",
		PaymentMethod: model.PaymentMethodTwint,
	}
}
