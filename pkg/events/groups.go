package events

// groupPrefix is prepended to the category name to form a transport group
const groupPrefix = "group:"

// groupNames is the static category -> transport group table
var groupNames = func() map[Category]string {
	m := make(map[Category]string, len(allCategories))
	for _, c := range allCategories {
		m[c] = groupPrefix + string(c)
	}
	return m
}()

// GroupName returns the transport group for a category. The second return
// value is false for categories outside the vocabulary.
func GroupName(c Category) (string, bool) {
	name, ok := groupNames[c]
	return name, ok
}
