package main

import (
	"log"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Timeout for the operation (default ACCOUNTS_SYNC_TIMEOUT)")

	accountsCmd.Flags().StringVar(&userID, "user-id", "", "User whose linked banks are summarized")
	accountsCmd.MarkFlagRequired("user-id")

	transactionsCmd.Flags().StringVar(&userID, "user-id", "", "Owner of the bank")
	transactionsCmd.Flags().StringVar(&itemID, "item-id", "", "Bank id whose transactions are listed")
	transactionsCmd.Flags().IntVar(&page, "page", 1, "Page number")
	transactionsCmd.MarkFlagRequired("user-id")
	transactionsCmd.MarkFlagRequired("item-id")

	rootCmd.AddCommand(migrateCmd, accountsCmd, transactionsCmd, purgeSessionsCmd)
}
