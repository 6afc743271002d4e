package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"config-lab/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
)

func main() {
	_ = godotenv.Load()
	dbPath := flag.String("db", os.Getenv("BADGER_FILEPATH"), "Path to badger DB")
	// Default scans session records; use "out:" to inspect the exchange outbox
	prefix := flag.String("prefix", "cfg:", "Prefix to scan")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Feature", "Status", "Group", "Admin", "Age", "Fields"})
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

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()

			err := item.Value(func(v []byte) error {
				var session domain.Session
				if err := json.Unmarshal(v, &session); err != nil {
					// Log and keep scanning instead of aborting the whole run
					fmt.Printf("Error unmarshaling key %s: %v\n", string(item.Key()), err)
					return nil
				}

				// The key prefix already carries the full UUID; eight
				// characters are enough on screen
				displayKey := session.Key
				if len(displayKey) > 8 {
					displayKey = displayKey[:8]
				}

				table.Append([]string{
					displayKey,
					string(session.Feature),
					statusLabel(session.Status),
					fmt.Sprintf("%d (%s)", session.Provenance.GroupID, session.Provenance.GroupName),
					fmt.Sprintf("%d", session.Provenance.AdminID),
					time.Since(session.CreatedAt).Round(time.Second).String(),
					fmt.Sprintf("%d", len(session.Draft)),
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
		log.Fatal(err)
	}

	table.Render()
}

// openDB opens Badger read-only. BypassLockGuard allows inspecting while
// configd holds the lock.
func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)
	return badger.Open(opts)
}

func statusLabel(status domain.Status) string {
	switch status {
	case domain.StatusOpen:
		return color.Green.Sprint(status.String())
	case domain.StatusCommitted:
		return color.Cyan.Sprint(status.String())
	case domain.StatusLocked:
		return color.Yellow.Sprint(status.String())
	default:
		return status.String()
	}
}
