package models

import (
	"errors"
	"testing"
	"time"
)

func TestUserRole_IsValid(t *testing.T) {
	tests := []struct {
		role  UserRole
		valid bool
	}{
		{RoleUser, true},
		{RoleAdmin, true},
		{"invalid", false},
		{"", false},
		{"USER", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := tt.role.IsValid(); got != tt.valid {
				t.Errorf("UserRole(%q).IsValid() = %v, want %v", tt.role, got, tt.valid)
			}
		})
	}
}

func TestUser_GetDisplayName(t *testing.T) {
	tests := []struct {
		name        string
		user        User
		wantDisplay string
	}{
		{"with display name", User{Username: "alice", DisplayName: "Alice Liddell"}, "Alice Liddell"},
		{"without display name", User{Username: "alice"}, "alice"},
		{"empty display name", User{Username: "alice", DisplayName: ""}, "alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.GetDisplayName(); got != tt.wantDisplay {
				t.Errorf("GetDisplayName() = %q, want %q", got, tt.wantDisplay)
			}
		})
	}
}

func TestUser_Validate(t *testing.T) {
	tests := []struct {
		name    string
		user    User
		wantErr bool
	}{
		{"valid user", User{Username: "alice", Role: "user"}, false},
		{"valid admin", User{Username: "root", Role: "admin"}, false},
		{"empty role", User{Username: "alice"}, false}, // empty role is allowed
		{"missing username", User{Role: "user"}, true},
		{"invalid role", User{Username: "alice", Role: "superuser"}, true},
		{"bad username charset", User{Username: "a/b", Role: "user"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUser_IsAdmin(t *testing.T) {
	tests := []struct {
		role    string
		isAdmin bool
	}{
		{"admin", true},
		{"user", false},
		{"", false},
		{"ADMIN", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			user := User{Role: tt.role}
			if got := user.IsAdmin(); got != tt.isAdmin {
				t.Errorf("IsAdmin() = %v, want %v", got, tt.isAdmin)
			}
		})
	}
}

func TestValidateNamespaceName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"alice", false},
		{"my-org", false},
		{"org_1", false},
		{"a.b.c", false},
		{"A", false},
		{"", true},
		{"-leading", true},
		{".leading", true},
		{"has space", true},
		{"has/slash", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNamespaceName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNamespaceName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
		})
	}
}

func TestOrgRole_IsValid(t *testing.T) {
	tests := []struct {
		role  OrgRole
		valid bool
	}{
		{RoleVisitor, true},
		{RoleMember, true},
		{RoleOrgAdmin, true},
		{RoleSuperAdmin, true},
		{"owner", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := tt.role.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestOrgRole_AtLeast(t *testing.T) {
	tests := []struct {
		role     OrgRole
		min      OrgRole
		expected bool
	}{
		{RoleVisitor, RoleVisitor, true},
		{RoleVisitor, RoleMember, false},
		{RoleMember, RoleVisitor, true},
		{RoleMember, RoleOrgAdmin, false},
		{RoleOrgAdmin, RoleMember, true},
		{RoleSuperAdmin, RoleOrgAdmin, true},
		{RoleSuperAdmin, RoleSuperAdmin, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"_vs_"+string(tt.min), func(t *testing.T) {
			if got := tt.role.AtLeast(tt.min); got != tt.expected {
				t.Errorf("AtLeast(%q) = %v, want %v", tt.min, got, tt.expected)
			}
		})
	}
}

func TestOrgRole_CanWriteCanAdmin(t *testing.T) {
	tests := []struct {
		role     OrgRole
		canWrite bool
		canAdmin bool
	}{
		{RoleVisitor, false, false},
		{RoleMember, true, false},
		{RoleOrgAdmin, true, true},
		{RoleSuperAdmin, true, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := tt.role.CanWrite(); got != tt.canWrite {
				t.Errorf("CanWrite() = %v, want %v", got, tt.canWrite)
			}
			if got := tt.role.CanAdmin(); got != tt.canAdmin {
				t.Errorf("CanAdmin() = %v, want %v", got, tt.canAdmin)
			}
		})
	}
}

func TestRepoType_IsValid(t *testing.T) {
	tests := []struct {
		repoType RepoType
		valid    bool
	}{
		{RepoTypeModel, true},
		{RepoTypeDataset, true},
		{RepoTypeSpace, true},
		{"notebook", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.repoType), func(t *testing.T) {
			if got := tt.repoType.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestParseRepoType(t *testing.T) {
	tests := []struct {
		input    string
		expected RepoType
		wantErr  bool
	}{
		{"model", RepoTypeModel, false},
		{"models", RepoTypeModel, false},
		{"dataset", RepoTypeDataset, false},
		{"datasets", RepoTypeDataset, false},
		{"Space", RepoTypeSpace, false},
		{"spaces", RepoTypeSpace, false},
		{"repo", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRepoType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRepoType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("ParseRepoType(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRepoType_Plural(t *testing.T) {
	if got := RepoTypeModel.Plural(); got != "models" {
		t.Errorf("Plural() = %q, want %q", got, "models")
	}
	if got := RepoTypeDataset.Plural(); got != "datasets" {
		t.Errorf("Plural() = %q, want %q", got, "datasets")
	}
}

func TestRepository_Validate(t *testing.T) {
	tests := []struct {
		name    string
		repo    Repository
		wantErr bool
	}{
		{"valid", Repository{RepoType: "model", Namespace: "alice", Name: "bert", FullID: "alice/bert"}, false},
		{"bad type", Repository{RepoType: "wiki", Namespace: "alice", Name: "bert", FullID: "alice/bert"}, true},
		{"bad namespace", Repository{RepoType: "model", Namespace: "-x", Name: "bert", FullID: "-x/bert"}, true},
		{"full id mismatch", Repository{RepoType: "model", Namespace: "alice", Name: "bert", FullID: "bob/bert"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.repo.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRepository_SuffixRules(t *testing.T) {
	t.Run("nil means server defaults", func(t *testing.T) {
		repo := Repository{}
		if got := repo.SuffixRules(); got != nil {
			t.Errorf("SuffixRules() = %v, want nil", got)
		}
	})

	t.Run("parses and trims", func(t *testing.T) {
		rules := ".safetensors, .bin ,,.gguf"
		repo := Repository{LFSSuffixRules: &rules}
		got := repo.SuffixRules()
		want := []string{".safetensors", ".bin", ".gguf"}
		if len(got) != len(want) {
			t.Fatalf("expected %d rules, got %d", len(want), len(got))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("rules[%d] = %q, want %q", i, got[i], want[i])
			}
		}
	})
}

func TestInvitation_Usable(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name    string
		inv     Invitation
		wantErr error
	}{
		{"fresh", Invitation{MaxUses: 1, UsedCount: 0}, nil},
		{"exhausted", Invitation{MaxUses: 1, UsedCount: 1}, ErrInvitationExhausted},
		{"expired", Invitation{MaxUses: 1, UsedCount: 0, ExpiresAt: &past}, ErrInvitationExpired},
		{"not yet expired", Invitation{MaxUses: 5, UsedCount: 4, ExpiresAt: &future}, nil},
		{"expired and exhausted reports expiry", Invitation{MaxUses: 1, UsedCount: 1, ExpiresAt: &past}, ErrInvitationExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.inv.Usable(now)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Usable() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestStorageReservation_Expired(t *testing.T) {
	now := time.Now()
	resv := StorageReservation{ExpiresAt: now.Add(time.Minute)}
	if resv.Expired(now) {
		t.Error("reservation should not be expired before its deadline")
	}
	if !resv.Expired(now.Add(2 * time.Minute)) {
		t.Error("reservation should be expired after its deadline")
	}
}

func TestQuotaExceededError(t *testing.T) {
	err := &QuotaExceededError{Namespace: "alice", Requested: 100, Available: 10}

	t.Run("message", func(t *testing.T) {
		msg := err.Error()
		if msg == "" {
			t.Fatal("expected non-empty message")
		}
	})

	t.Run("detected through wrapping", func(t *testing.T) {
		wrapped := errors.Join(errors.New("commit rejected"), err)
		qe, ok := IsQuotaExceeded(wrapped)
		if !ok {
			t.Fatal("expected quota error to be detected")
		}
		if qe.Requested != 100 || qe.Available != 10 {
			t.Errorf("unexpected fields: %+v", qe)
		}
	})

	t.Run("not detected on other errors", func(t *testing.T) {
		if _, ok := IsQuotaExceeded(errors.New("boom")); ok {
			t.Error("expected plain error not to match")
		}
	})
}
