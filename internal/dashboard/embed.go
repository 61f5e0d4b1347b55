//go:build !dev

package dashboard

import (
	"embed"
	"io/fs"
)

//go:embed assets
var embeddedFS embed.FS

// assetsFS holds templates/ and static/. Production builds embed them.
var assetsFS fs.FS = mustSub(embeddedFS, "assets")
