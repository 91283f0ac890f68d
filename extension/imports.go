package extension

// Import pairs a package alias with its full import path.
type Import struct {
	Package string
	PkgPath string
}

// Imports is a lookup list of package aliases used when resolving
// qualified type names.
type Imports []*Import

// HasPkgPath returns true when the list already carries the given path.
func (i Imports) HasPkgPath(pkgPath string) bool {
	for _, item := range i {
		if item.PkgPath == pkgPath {
			return true
		}
	}
	return false
}

// PkgPath returns the full path registered for an alias, or empty string.
func (i Imports) PkgPath(pkg string) string {
	for _, item := range i {
		if item.Package == pkg {
			return item.PkgPath
		}
	}
	return ""
}
