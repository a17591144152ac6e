package main

import (
	"direct-chat/domain"
	"direct-chat/repositories"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	a := flag.String("a", "", "First party, scans every conversation when empty")
	b := flag.String("b", "", "Second party")
	flag.Parse()

	prefix := repositories.MessageKeyPrefix
	if *a != "" && *b != "" {
		prefix = repositories.ConversationPrefix(domain.PartyID(*a), domain.PartyID(*b))
	}

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	if err = inspect(db, prefix, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

// inspect prints every message under prefix in key order, oldest first.
func inspect(db *badger.DB, prefix string, out io.Writer) error {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Seq", "Timestamp", "Message ID", "Sender", "Receiver", "Body"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				message, err := repositories.DecodeMessage(v)
				if err != nil {
					// Keep going, one bad record must not hide the others
					fmt.Fprintf(out, "Error decoding key %s: %v\n", string(item.Key()), err)
					return nil
				}

				// First 8 characters of the id are enough to tell messages apart
				displayID := message.ID.String()
				if len(displayID) > 8 {
					displayID = displayID[:8]
				}

				table.Append([]string{
					fmt.Sprintf("%d", message.Seq),
					message.Timestamp.Format(time.RFC3339),
					displayID,
					string(message.SenderID),
					string(message.ReceiverID),
					message.Body,
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	table.Render()
	return nil
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)

	db, err := badger.Open(opts)
	if err != nil && strings.Contains(err.Error(), "Log truncate required") {
		// A crashed writer leaves the value log dirty, a write open truncates it
		repairOpts := badger.DefaultOptions(path).WithLogger(nil).WithBypassLockGuard(true)
		repaired, repairErr := badger.Open(repairOpts)
		if repairErr != nil {
			return nil, fmt.Errorf("repair failed: %w", repairErr)
		}
		_ = repaired.Close()
		return badger.Open(opts)
	}
	return db, err
}
