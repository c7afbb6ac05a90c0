package ids

import "github.com/segmentio/ksuid"

// New returns a new k-sortable unique id. KSUIDs embed their creation time,
// so lexical order roughly follows creation order.
func New() string {
	return ksuid.New().String()
}
