package vanilla

import (
	"embed"
	"io/fs"
)

// Bundled asset file names, relative to AssetsFS.
const (
	StylesheetName = "pagebuilder-vanilla.css"
	EditorScript   = "pagebuilder-editor.js"
)

// AssetPrefix is the URL path page documents link assets under. Hosts mount
// AssetsFS there.
const AssetPrefix = "/assets/"

//go:embed templates assets
var bundle embed.FS

// TemplatesFS returns the bundled templates. Paths keep their "templates/"
// prefix, which is how the renderer names them.
func TemplatesFS() fs.FS {
	return bundle
}

// AssetsFS returns the stylesheet and editor script rooted at the asset
// directory.
func AssetsFS() fs.FS {
	assets, err := fs.Sub(bundle, "assets")
	if err != nil {
		panic(err)
	}
	return assets
}

// AssetURL is the link a page document uses for the bundled asset name.
func AssetURL(name string) string {
	return AssetPrefix + name
}

func bundledStylesheet() string {
	data, _ := fs.ReadFile(bundle, "assets/"+StylesheetName)
	return string(data)
}
