// assets/embed.go
//
// Embedded static data shipped inside the binary:
//   - words.json: the default word bank.
//   - sql/*.sql:  schema migrations, applied in lexical order.

package assets

import (
	"embed"
	"io/fs"
)

//go:embed words.json sql/*.sql
var FS embed.FS

// Words returns the raw default word bank document.
func Words() ([]byte, error) {
	return FS.ReadFile("words.json")
}

// Migrations returns the migrations directory rooted at "sql".
func Migrations() (fs.FS, error) {
	return fs.Sub(FS, "sql")
}
