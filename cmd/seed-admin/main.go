package main

import (
	"flag"
	"log"

	"bitbucket.org/mmdatafocus/mfi_backend/config"
	"bitbucket.org/mmdatafocus/mfi_backend/models"
	"bitbucket.org/mmdatafocus/mfi_backend/utils"
)

// Bootstraps the head-office branch and a SUPER_ADMIN user. Safe to rerun: an
// existing username is left untouched.
func main() {
	username := flag.String("username", "admin", "super admin username")
	password := flag.String("password", "", "super admin password (required)")
	branchCode := flag.String("branch-code", "HQ", "head office branch code")
	branchName := flag.String("branch-name", "Head Office", "head office branch name")
	flag.Parse()

	if *password == "" {
		log.Fatal("-password is required")
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if err := models.AutoMigrateAll(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	branch := models.Branch{Code: *branchCode, Name: *branchName}
	if err := db.Where(models.Branch{Code: *branchCode}).FirstOrCreate(&branch).Error; err != nil {
		log.Fatalf("branch: %v", err)
	}

	var existing models.User
	if err := db.Where("username = ?", *username).First(&existing).Error; err == nil {
		log.Printf("user %q already exists (id=%d); nothing to do", *username, existing.ID)
		return
	}

	hashed, err := utils.HashPassword(*password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}
	user := models.User{
		Username: *username,
		Name:     "Super Admin",
		Password: string(hashed),
		Role:     models.UserRoleSuperAdmin,
		BranchId: branch.ID,
	}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("create user: %v", err)
	}
	log.Printf("created super admin %q (id=%d) in branch %s", user.Username, user.ID, branch.Code)
}
