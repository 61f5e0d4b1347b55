//go:build dev

package dashboard

import (
	"io/fs"
	"os"
)

// assetsFS reads straight from the source tree in dev builds so template and
// stylesheet edits show up on reload. Run from the repository root.
var assetsFS fs.FS = os.DirFS("internal/dashboard/assets")
