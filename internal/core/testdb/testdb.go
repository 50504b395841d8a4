// Package testdb opens an isolated in-memory SQLite database with the full
// schema, for repository and service tests.
package testdb

import (
	"fmt"
	"time"

	categoryDatamodel "github.com/frahmantamala/medical-filemanager/internal/core/datamodel/category"
	departmentDatamodel "github.com/frahmantamala/medical-filemanager/internal/core/datamodel/department"
	folderDatamodel "github.com/frahmantamala/medical-filemanager/internal/core/datamodel/folder"
	medicalfileDatamodel "github.com/frahmantamala/medical-filemanager/internal/core/datamodel/medicalfile"
	sessionDatamodel "github.com/frahmantamala/medical-filemanager/internal/core/datamodel/session"
	userDatamodel "github.com/frahmantamala/medical-filemanager/internal/core/datamodel/user"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every table in creation order.
func Models() []interface{} {
	return []interface{}{
		&departmentDatamodel.Department{},
		&userDatamodel.User{},
		&sessionDatamodel.UserSession{},
		&categoryDatamodel.Category{},
		&folderDatamodel.YearFolder{},
		&folderDatamodel.MonthFolder{},
		&folderDatamodel.DateFolder{},
		&medicalfileDatamodel.MedicalFile{},
	}
}

// Open returns a fresh database. Each call gets its own named shared-cache
// memory database so parallel specs never see each other's rows.
func Open() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// one connection keeps the memory database alive and serialises writers
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, err
	}
	return db, nil
}

// MustOpen is Open for BeforeEach blocks.
func MustOpen() *gorm.DB {
	db, err := Open()
	if err != nil {
		panic(err)
	}
	return db
}

// SeedDepartment inserts a department row and returns its id.
func SeedDepartment(db *gorm.DB, code, name string) int64 {
	row := &departmentDatamodel.Department{Code: code, Name: name}
	if err := db.Create(row).Error; err != nil {
		panic(err)
	}
	return row.ID
}

// SeedUser inserts an approved, active user.
func SeedUser(db *gorm.DB, username string, departmentID *int64, staff bool) *userDatamodel.User {
	row := &userDatamodel.User{
		Username:     username,
		Email:        username + "@hospital.test",
		Name:         username,
		PasswordHash: "x",
		DepartmentID: departmentID,
		IsStaff:      staff,
		IsApproved:   true,
		IsActive:     true,
	}
	if err := db.Create(row).Error; err != nil {
		panic(err)
	}
	return row
}
