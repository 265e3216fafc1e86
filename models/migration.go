package models

import (
	"log"

	"bitbucket.org/mmdatafocus/invoicing_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Business{}, &Currency{}, &Customer{},
		&ProductUnit{}, &Product{}, &ProductTranslation{},
		&Tax{},
		&Invoice{}, &InvoiceDetail{}, &Subvention{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
