// Package assets provides the style sheets embedded in rendered snapshots.
//
// # Loader Architecture
//
//	StyleLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - built-in styles compiled in with go:embed
//	    ├── FilesystemLoader  - styles from a custom directory on disk
//	    └── AssetResolver     - custom first, embedded as fallback
//
// Every embedded style ships with a matching code highlighting theme: the
// loader appends CSS generated by chroma so fenced code blocks rendered with
// class names get colored.
//
// Custom directories follow the layout {basePath}/styles/{name}.css. Names
// are validated and resolved paths must stay under basePath.
//
// DefaultStyleSheet returns the built-in default style, loaded once per
// process. It never fails: if the embedded resource is unusable it returns
// FallbackStyle.
package assets
