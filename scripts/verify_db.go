package main

import (
	"fmt"
	"log"

	"github.com/glebarez/sqlite"
	"github.com/wwwzy/DeskAgent/internal/storage"
	"gorm.io/gorm"
)

func main() {
	// Connect to the database
	db, err := gorm.Open(sqlite.Open("deskagent.db"), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	fmt.Println("--- Verifying DeskAgent Database ---")

	// Verify ConversationRecords
	var convCount int64
	// We need to verify if the table exists first to avoid panic if migration didn't run
	if !db.Migrator().HasTable(&storage.ConversationRecord{}) {
		fmt.Println("Table 'conversation_records' does not exist yet.")
	} else {
		db.Model(&storage.ConversationRecord{}).Count(&convCount)
		fmt.Printf("Total Conversation Records: %d\n", convCount)

		if convCount > 0 {
			var recs []storage.ConversationRecord
			db.Order("created_at desc").Limit(5).Find(&recs)
			fmt.Println("Latest 5 Conversations (Local Time):")
			for _, r := range recs {
				query := r.Query
				if len(query) > 50 {
					query = query[:47] + "..."
				}
				fmt.Printf("  [%s] %s status=%s steps=%s %dms\n",
					r.CreatedAt.Local().Format("2006-01-02 15:04:05"), query, r.Status, r.SequenceJSON, r.DurationMS)
			}
		}
	}

	fmt.Println("\n------------------------------------")

	// Verify AblationResults
	var ablCount int64
	if !db.Migrator().HasTable(&storage.AblationResult{}) {
		fmt.Println("Table 'ablation_results' does not exist yet.")
	} else {
		db.Model(&storage.AblationResult{}).Count(&ablCount)
		fmt.Printf("Total Ablation Results: %d\n", ablCount)

		if ablCount > 0 {
			var results []storage.AblationResult
			db.Order("created_at desc").Limit(5).Find(&results)
			fmt.Println("Latest 5 Ablation Results (Local Time):")
			for _, r := range results {
				query := r.Query
				if len(query) > 40 {
					query = query[:37] + "..."
				}
				fmt.Printf("  [%s] %s config=%s steps=%d success=%v %dms\n",
					r.CreatedAt.Local().Format("2006-01-02 15:04:05"), query, r.Config, r.Steps, r.Success, r.DurationMS)
			}
		}
	}

	fmt.Println("\n------------------------------------")

	// Verify seeded backend data
	var orderCount, accountCount int64
	if db.Migrator().HasTable(&storage.Order{}) {
		db.Model(&storage.Order{}).Count(&orderCount)
	}
	if db.Migrator().HasTable(&storage.Account{}) {
		db.Model(&storage.Account{}).Count(&accountCount)
	}
	fmt.Printf("Orders: %d, Accounts: %d\n", orderCount, accountCount)

	fmt.Println("--- Verification Complete ---")
}
