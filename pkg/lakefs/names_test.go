package lakefs

import "testing"

func TestRepoName(t *testing.T) {
	tests := []struct {
		repoType  string
		namespace string
		name      string
		want      string
	}{
		{"model", "alice", "m1", "hf-model-alice-m1"},
		{"dataset", "my_org", "train_set", "hf-dataset-my-org-train-set"},
		{"space", "Alice", "Demo", "hf-space-alice-demo"},
		{"model", "org", "nested/name", "hf-model-org-nested-name"},
	}

	for _, tt := range tests {
		if got := RepoName(tt.repoType, tt.namespace, tt.name); got != tt.want {
			t.Errorf("RepoName(%q, %q, %q) = %q, want %q",
				tt.repoType, tt.namespace, tt.name, got, tt.want)
		}
	}
}

func TestRepoNameStable(t *testing.T) {
	a := RepoName("model", "alice", "m1")
	b := RepoName("model", "alice", "m1")
	if a != b {
		t.Errorf("mapping not stable: %q vs %q", a, b)
	}
}
