package lakefs

import "strings"

// InternalPrefix is where the backend keeps its own metadata inside a
// repository's storage namespace. Blob-level copies must skip it.
const InternalPrefix = "_lakefs/"

// RepoName derives the backend repository name from a hub repository
// identity. The backend only accepts lowercase DNS-ish names, so slashes
// and underscores collapse to dashes:
//
//	("model", "alice", "my_model") -> "hf-model-alice-my-model"
//
/// The mapping is stable and injective over validated hub names: namespaces
// and repo names never contain "-/"-ambiguous characters beyond the ones
// replaced here.
func RepoName(repoType, namespace, name string) string {
	sanitize := func(s string) string {
		s = strings.ReplaceAll(s, "/", "-")
		s = strings.ReplaceAll(s, "_", "-")
		return strings.ToLower(s)
	}
	return "hf-" + sanitize(repoType) + "-" + sanitize(namespace) + "-" + sanitize(name)
}
