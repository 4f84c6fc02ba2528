// Package migrations embeds the SQL schema so binaries and tests do not
// depend on the working directory.
package migrations

import (
	"embed"
	"io/fs"
	"os"
)

//go:embed *.sql
var FS embed.FS

// Source returns dir as a filesystem, or the embedded set when dir is empty.
func Source(dir string) fs.FS {
	if dir == "" {
		return FS
	}
	return os.DirFS(dir)
}
