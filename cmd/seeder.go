package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/frahmantamala/medical-filemanager/internal/auth"
	"github.com/frahmantamala/medical-filemanager/internal/category"
	userDatamodel "github.com/frahmantamala/medical-filemanager/internal/core/datamodel/user"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var adminPassword string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with departments, an admin and sample categories",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		deps, err := initializeDependencies(ctx)
		if err != nil {
			log.Fatalf("failed to init dependencies: %v", err)
		}
		defer deps.Close()

		if clearData {
			if err := clearTables(deps.Gorm); err != nil {
				log.Fatalf("failed to clear data: %v", err)
			}
			fmt.Println("Cleared files, folders, categories, sessions and users (stored blobs are left in place)")
		}

		created, err := deps.Services.Departments.EnsureDefaults(ctx)
		if err != nil {
			log.Fatalf("failed to seed departments: %v", err)
		}
		fmt.Printf("Seeded %d departments\n", created)

		if err := seedAdmin(deps.Gorm, deps.Config.Security.BCryptCost); err != nil {
			log.Fatalf("failed to seed admin user: %v", err)
		}

		categories := []category.CreateCategoryRequest{
			{Name: "Lab Results", Department: "LAB"},
			{Name: "X-Ray", Department: "RADIOLOGY"},
			{Name: "MRI", Department: "RADIOLOGY"},
			{Name: "Discharge Summaries", Department: "EMERGENCY"},
			{Name: "Operative Notes", Department: "SURGERY"},
			{Name: "Growth Charts", Department: "PEDIATRIC"},
			{Name: "NICU Records", Department: "NEONATAL"},
			{Name: "Policies", Department: "ADMINISTRATION"},
		}

		for _, req := range categories {
			c, result, err := deps.Services.Categories.Create(ctx, req)
			if err != nil {
				if errors.Is(err, category.ErrDuplicateCategory) {
					fmt.Printf("Category %s/%s already exists\n", req.Department, req.Name)
					continue
				}
				log.Fatalf("failed to seed category %s: %v", req.Name, err)
			}
			fmt.Printf("Seeded category %s/%s: %d years, %d months, %d days\n",
				req.Department, c.Name, result.Years, result.Months, result.Days)
		}

		fmt.Println("Seeding finished")
	},
}

func init() {
	seedCmd.Flags().StringVar(&adminPassword, "admin-password", "admin12345", "password of the seeded admin user")
}

func seedAdmin(db *gorm.DB, cost int) error {
	var count int64
	if err := db.Model(&userDatamodel.User{}).Where("username = ?", "admin").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		fmt.Println("admin user already exists")
		return nil
	}

	hash, err := auth.HashPassword(adminPassword, cost)
	if err != nil {
		return err
	}

	admin := &userDatamodel.User{
		Username:     "admin",
		Email:        "admin@example.com",
		Name:         "Administrator",
		PasswordHash: hash,
		IsStaff:      true,
		IsApproved:   true,
		IsActive:     true,
	}
	if err := db.Create(admin).Error; err != nil {
		return err
	}
	fmt.Println("Seeded admin user: admin")
	return nil
}

// clearTables deletes rows children first so foreign keys hold throughout.
func clearTables(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{
			"medical_files",
			"date_folders",
			"month_folders",
			"year_folders",
			"categories",
			"user_sessions",
			"users",
		} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}
