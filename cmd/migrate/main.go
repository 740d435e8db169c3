package main

import (
	"log"
	"os"

	"ai-consulting-be/internal/model"
	"ai-consulting-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn, database.DefaultPoolConfig())
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	// 3. Pre-Migration: gen_random_uuid() lives in pgcrypto before Postgres 13
	log.Println("Step 1: Setting up Extensions...")
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
	}

	// 4. AutoMigrate
	log.Println("Step 2: Running AutoMigrate...")
	models := []interface{}{
		&model.ConversationContext{},
		&model.CapabilityUsageLog{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: constraints AutoMigrate cannot express
	log.Println("Step 3: Creating Constraints...")
	postMigrationSQL := []string{
		`DO $$ BEGIN
		   ALTER TABLE conversation_contexts ADD CONSTRAINT chk_conversation_contexts_stage
		   CHECK (stage IN ('GREETING', 'INTENT', 'QUALIFY', 'ACTION'));
		 EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,
		`DO $$ BEGIN
		   ALTER TABLE conversation_contexts ADD CONSTRAINT chk_conversation_contexts_role_confidence
		   CHECK (role_confidence IS NULL OR (role_confidence >= 0 AND role_confidence <= 1));
		 EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,
	}
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}
