package ports

// PropertyBag is the key/value container callers fill before construction.
// GetString reports ok=false when the key is absent.
type PropertyBag interface {
	GetString(key string) (string, bool)
}
