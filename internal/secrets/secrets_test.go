// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		dirs  []string
		want  Secrets
	}{
		{
			name: "credential files trimmed",
			files: map[string]string{
				NCBIAPIKey:    "  ncbi_abc123  \n",
				NCBIEmail:     "lab@example.org",
				OpenAlexEmail: "user@example.com\n",
			},
			want: Secrets{
				NCBIAPIKey:    "ncbi_abc123",
				NCBIEmail:     "lab@example.org",
				OpenAlexEmail: "user@example.com",
			},
		},
		{
			name: "blank files ignored",
			files: map[string]string{
				NCBIAPIKey:        "valid-key",
				"empty-key":       "",
				"whitespace-only": "   \n\t  ",
			},
			want: Secrets{NCBIAPIKey: "valid-key"},
		},
		{
			name: "dotfiles ignored",
			files: map[string]string{
				".gitkeep":    "",
				".hidden-key": "secret",
				NCBIEmail:     "real@example.org",
			},
			want: Secrets{NCBIEmail: "real@example.org"},
		},
		{
			name:  "directories ignored",
			files: map[string]string{OpenAlexEmail: "oa@example.org"},
			dirs:  []string{"nested"},
			want:  Secrets{OpenAlexEmail: "oa@example.org"},
		},
		{
			name: "empty directory",
			want: Secrets{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				writeFile(t, dir, name, content)
			}
			for _, sub := range tt.dirs {
				require.NoError(t, os.Mkdir(filepath.Join(dir, sub), 0o755))
			}

			got, err := Load(dir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_MissingDirectory(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoad_UnreadableFileSkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits do not apply to root")
	}
	dir := t.TempDir()
	writeFile(t, dir, NCBIEmail, "lab@example.org")

	locked := filepath.Join(dir, NCBIAPIKey)
	require.NoError(t, os.WriteFile(locked, []byte("key"), 0o000))
	t.Cleanup(func() { os.Chmod(locked, 0o644) })

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Secrets{NCBIEmail: "lab@example.org"}, got)
}

func TestSecretsGet(t *testing.T) {
	var none Secrets
	assert.Equal(t, "", none.Get(NCBIAPIKey))

	s := Secrets{NCBIAPIKey: "k"}
	assert.Equal(t, "k", s.Get(NCBIAPIKey))
	assert.Equal(t, "", s.Get(NCBIEmail))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
