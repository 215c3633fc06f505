package user

import (
	"os"
	"path/filepath"
	"testing"

	apperrors "stripdemo/internal/errors"
)

func TestLoadRecord(t *testing.T) {
	tests := []struct {
		file      string
		content   string
		wantName  string
		wantEmail string
	}{
		{"draft.json", `{"name":"Ada","email":"ada@example.com"}`, "Ada", "ada@example.com"},
		{"draft.yaml", "name: Ada\nemail: ada@example.com\n", "Ada", "ada@example.com"},
		{"draft.yml", "name: Grace\n", "Grace", ""},
		{"draft.toml", "name = \"Ada\"\nemail = \"ada@example.com\"\n", "Ada", "ada@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			p := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(p, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			rec, err := LoadRecord(p)
			if err != nil {
				t.Fatalf("LoadRecord() error = %v", err)
			}
			if rec.Name == nil || *rec.Name != tt.wantName {
				t.Errorf("Name = %v, want %q", rec.Name, tt.wantName)
			}
			if tt.wantEmail == "" {
				if rec.Email != nil {
					t.Errorf("Email = %q, want unset", *rec.Email)
				}
			} else if rec.Email == nil || *rec.Email != tt.wantEmail {
				t.Errorf("Email = %v, want %q", rec.Email, tt.wantEmail)
			}
		})
	}
}

func TestLoadRecordErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	tests := []struct {
		name string
		path string
		code apperrors.ErrorCode
	}{
		{"unsupported extension", write("draft.txt", "name=Ada"), apperrors.InvalidConfig},
		{"malformed json", write("bad.json", "{"), apperrors.InvalidConfig},
		{"malformed toml", write("bad.toml", "name = "), apperrors.InvalidConfig},
		{"missing file", filepath.Join(dir, "missing.json"), apperrors.InternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRecord(tt.path)
			if err == nil {
				t.Fatal("LoadRecord() succeeded")
			}
			if got := apperrors.CodeOf(err); got != tt.code {
				t.Errorf("code = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestSetRecord(t *testing.T) {
	name := "Ada"
	s := NewService(Options{Poster: &fakePoster{}})
	s.SetRecord(Record{Name: &name})
	name = "changed"

	if got := s.Record(); got.Name == nil || *got.Name != "Ada" || got.Email != nil {
		t.Errorf("Record() = %+v", got)
	}
}
