package fallback

import (
	"fmt"
	"strings"

	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
)

func endpointOf(src *models.FallbackSource) string {
	return strings.TrimSuffix(src.Endpoint, "/")
}

func plural(repoType string) string {
	return models.RepoType(repoType).Plural()
}

// apiRepoURL maps the repo info endpoint onto a source. The /api/
// layout is identical across dialects.
func apiRepoURL(src *models.FallbackSource, repoType, namespace, name string) string {
	return fmt.Sprintf("%s/api/%s/%s/%s", endpointOf(src), plural(repoType), namespace, name)
}

func apiRevisionURL(src *models.FallbackSource, repoType, namespace, name, revision string) string {
	base := apiRepoURL(src, repoType, namespace, name)
	if revision == "" {
		return base
	}
	return base + "/revision/" + revision
}

func apiTreeURL(src *models.FallbackSource, repoType, namespace, name, revision, path string) string {
	url := fmt.Sprintf("%s/api/%s/%s/%s/tree/%s",
		endpointOf(src), plural(repoType), namespace, name, revision)
	if path != "" {
		url += "/" + strings.Trim(path, "/")
	}
	return url
}

func apiListURL(src *models.FallbackSource, repoType string) string {
	return fmt.Sprintf("%s/api/%s", endpointOf(src), plural(repoType))
}

// resolveURL maps a file download onto a source. HuggingFace drops the
// "models/" segment for model repos; every other combination keeps the
// type segment.
func resolveURL(src *models.FallbackSource, repoType, namespace, name, revision, path string) string {
	if src.SourceType == models.SourceTypeHuggingFace && repoType == string(models.RepoTypeModel) {
		return fmt.Sprintf("%s/%s/%s/resolve/%s/%s",
			endpointOf(src), namespace, name, revision, path)
	}
	return fmt.Sprintf("%s/%s/%s/%s/resolve/%s/%s",
		endpointOf(src), plural(repoType), namespace, name, revision, path)
}
