package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"complaintportal/backend/internal/config"
	"complaintportal/backend/internal/models"
	"complaintportal/backend/internal/storage"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const usage = `Usage: admin <command> [args]

Commands:
  migrate                                            create or update tables
  create-admin <username> <password> <full name> <department>
  list-admins
  activate <username>
  deactivate <username>
  reset-password <username> <password>
  hash-password <password>                           bcrypt hash for *_ACCOUNTS variables`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}
	command, args := os.Args[1], os.Args[2:]

	// hash-password needs no database.
	if command == "hash-password" {
		requireArgs(args, 1, "hash-password <password>")
		hash, err := bcrypt.GenerateFromPassword([]byte(args[0]), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("Error hashing password: %v", err)
		}
		fmt.Println(string(hash))
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	storageSvc := storage.NewStorageService(db, nil) // No redis needed for admin CLI

	switch command {
	case "migrate":
		if err := storageSvc.Migrate(); err != nil {
			log.Fatalf("Error running migrations: %v", err)
		}
		fmt.Println("Migrations complete.")
	case "create-admin":
		requireArgs(args, 4, "create-admin <username> <password> <full name> <department>")
		a, err := createAdmin(storageSvc, args[0], args[1], args[2], args[3])
		if err != nil {
			log.Fatalf("Error creating admin: %v", err)
		}
		fmt.Printf("Admin %s created with id %s.\n", a.Username, a.ID)
	case "list-admins":
		admins, err := storageSvc.ListAdmins(false)
		if err != nil {
			log.Fatalf("Error listing admins: %v", err)
		}
		printAdmins(admins)
	case "activate", "deactivate":
		requireArgs(args, 1, command+" <username>")
		if err := setActive(storageSvc, args[0], command == "activate"); err != nil {
			log.Fatalf("Error updating admin: %v", err)
		}
		fmt.Printf("Admin %s has been %sd.\n", args[0], command)
	case "reset-password":
		requireArgs(args, 2, "reset-password <username> <password>")
		if err := resetPassword(storageSvc, args[0], args[1]); err != nil {
			log.Fatalf("Error resetting password: %v", err)
		}
		fmt.Printf("Password for %s has been reset.\n", args[0])
	default:
		fmt.Println("Unknown command")
		fmt.Println(usage)
		os.Exit(1)
	}
}

func requireArgs(args []string, n int, form string) {
	if len(args) < n {
		fmt.Println("Usage: admin " + form)
		os.Exit(1)
	}
}

func createAdmin(s storage.Storage, username, password, fullName, department string) (*models.Admin, error) {
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}
	if _, err := s.GetAdminByUsername(username); err == nil {
		return nil, fmt.Errorf("username %q already exists", username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	a := &models.Admin{
		Username:     strings.TrimSpace(username),
		PasswordHash: string(hash),
		FullName:     fullName,
		Department:   department,
		IsActive:     true,
	}
	if err := validator.New().Struct(a); err != nil {
		return nil, err
	}
	return a, s.SaveAdmin(a)
}

func setActive(s storage.Storage, username string, active bool) error {
	a, err := s.GetAdminByUsername(username)
	if err != nil {
		return err
	}
	a.IsActive = active
	return s.UpdateAdmin(a)
}

func resetPassword(s storage.Storage, username, password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	a, err := s.GetAdminByUsername(username)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hash)
	return s.UpdateAdmin(a)
}

func printAdmins(admins []models.Admin) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tDEPARTMENT\tACTIVE")
	for _, a := range admins {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", a.ID, a.Username, a.FullName, a.Department, a.IsActive)
	}
	w.Flush()
}
