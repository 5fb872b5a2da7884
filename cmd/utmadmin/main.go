// Command utmadmin обслуживает базу UTM-метаданных из командной строки.
//
// Примеры:
//
//	utmadmin db migrate --file utm.db
//	utmadmin settings set false
//	utmadmin meta get promo
//	utmadmin suggest utm_source news --limit 20
//	utmadmin meta export meta.jsonl
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
