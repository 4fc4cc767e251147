package seed

import (
	"encoding/csv"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

// LoadCatalog ingests a starter frame/lens catalog CSV into a company's
// categories and inventory, skipping rows that already exist. Expected
// columns: category, name, unit_price, total_stock.
func LoadCatalog(db *sqlx.DB, companyID int64, csvPath string) {
	file, err := os.Open(csvPath)
	if err != nil {
		log.Printf("unable to load catalog %s: %v", csvPath, err)
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// Skip header
	if _, err := reader.Read(); err != nil {
		log.Printf("unable to read catalog header: %v", err)
		return
	}

	tx, err := db.Beginx()
	if err != nil {
		log.Printf("unable to start catalog transaction: %v", err)
		return
	}

	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("unable to read catalog row: %v", err)
			continue
		}
		if len(record) < 4 {
			continue
		}
		category := strings.TrimSpace(record[0])
		name := strings.TrimSpace(record[1])
		if category == "" || name == "" {
			continue
		}
		unitPrice, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			log.Printf("skipping catalog row %q: bad unit price: %v", name, err)
			continue
		}
		totalStock, err := strconv.ParseInt(strings.TrimSpace(record[3]), 10, 64)
		if err != nil {
			log.Printf("skipping catalog row %q: bad stock: %v", name, err)
			continue
		}

		if _, err := tx.Exec(`INSERT OR IGNORE INTO categories (company_id, name) VALUES (?, ?)`,
			companyID, category); err != nil {
			log.Printf("unable to insert category %q: %v", category, err)
			continue
		}
		var categoryID int64
		if err := tx.Get(&categoryID, `SELECT id FROM categories WHERE company_id = ? AND name = ?`,
			companyID, category); err != nil {
			log.Printf("unable to resolve category %q: %v", category, err)
			continue
		}

		var existing int64
		if err := tx.Get(&existing, `SELECT COUNT(*) FROM inventory_items WHERE company_id = ? AND name = ?`,
			companyID, name); err != nil || existing > 0 {
			continue
		}
		if _, err := tx.Exec(
			`INSERT INTO inventory_items (company_id, category_id, name, unit_price, total_stock) VALUES (?, ?, ?, ?, ?)`,
			companyID, categoryID, name, unitPrice, totalStock); err != nil {
			log.Printf("unable to insert catalog item %q: %v", name, err)
			continue
		}
		rows++
	}

	if err := tx.Commit(); err != nil {
		log.Printf("unable to commit catalog seed: %v", err)
		return
	}
	if rows > 0 {
		log.Printf("seeded %d catalog items for company %d", rows, companyID)
	}
}
