package layout

import "github.com/google/uuid"

// placeholderNamespace seeds name-based ids so placeholder ids are stable
// across layout passes of the same tree.
var placeholderNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://flowcanvas.dev/placeholder"))

// placeholderID derives the id of the placeholder standing in for an absent
// step at slot. slot is "<owner step name>/<slot name>", or "root".
func placeholderID(slot string) string {
	return "placeholder-" + uuid.NewSHA1(placeholderNamespace, []byte(slot)).String()
}

func slotOf(owner, slot string) string {
	return owner + "/" + slot
}
