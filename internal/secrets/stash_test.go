package secrets

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"go.uber.org/zap"
)

func openTestStash(t *testing.T, dir string) *Stash {
	t.Helper()
	stash, err := Open(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return stash
}

func TestStash_SetGetRoundtrip(t *testing.T) {
	stash := openTestStash(t, t.TempDir())

	value := []byte("AIzaSyExampleKey123")
	if err := stash.Set("GEMINI_API_KEY", value); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := stash.Get("GEMINI_API_KEY")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != string(value) {
		t.Errorf("Get() = %q, want %q", got, value)
	}
}

func TestStash_GetMissing(t *testing.T) {
	stash := openTestStash(t, t.TempDir())

	if _, err := stash.Get("GEMINI_API_KEY"); err == nil {
		t.Fatal("Get() expected error for missing key")
	}
}

func TestStash_Exists(t *testing.T) {
	stash := openTestStash(t, t.TempDir())

	if stash.Exists("GEMINI_API_KEY") {
		t.Error("Exists() = true before Set")
	}
	if err := stash.Set("GEMINI_API_KEY", []byte("value")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if !stash.Exists("GEMINI_API_KEY") {
		t.Error("Exists() = false after Set")
	}
}

func TestStash_Clear(t *testing.T) {
	stash := openTestStash(t, t.TempDir())

	if err := stash.Set("GEMINI_API_KEY", []byte("value")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := stash.Clear("GEMINI_API_KEY"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if stash.Exists("GEMINI_API_KEY") {
		t.Error("key still exists after Clear()")
	}

	if err := stash.Clear("GEMINI_API_KEY"); err == nil {
		t.Error("Clear() expected error for missing key")
	}
}

func TestStash_List(t *testing.T) {
	stash := openTestStash(t, t.TempDir())

	entries, err := stash.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("List() = %v, want empty", entries)
	}

	if err := stash.Set("GEMINI_API_KEY", []byte("value")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	entries, err = stash.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "GEMINI_API_KEY" {
		t.Fatalf("List() = %v, want one GEMINI_API_KEY entry", entries)
	}
	if entries[0].StoredAt.IsZero() {
		t.Error("entry StoredAt is zero")
	}
}

func TestStash_PersistsAcrossOpens(t *testing.T) {
	dir := t.TempDir()

	first := openTestStash(t, dir)
	if err := first.Set("GEMINI_API_KEY", []byte("persistent")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	second := openTestStash(t, dir)
	got, err := second.Get("GEMINI_API_KEY")
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if string(got) != "persistent" {
		t.Errorf("Get() = %q, want persistent", got)
	}
}

func TestStash_WrongPassphraseFails(t *testing.T) {
	dir := t.TempDir()

	stash := openTestStash(t, dir)
	if err := stash.Set("GEMINI_API_KEY", []byte("value")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, passphraseFile), []byte("different"), 0o600); err != nil {
		t.Fatalf("failed to replace passphrase: %v", err)
	}

	reopened := openTestStash(t, dir)
	if _, err := reopened.Get("GEMINI_API_KEY"); err == nil {
		t.Fatal("Get() expected decryption failure with wrong passphrase")
	}
}

func TestStash_TamperedCiphertextFails(t *testing.T) {
	dir := t.TempDir()

	stash := openTestStash(t, dir)
	if err := stash.Set("GEMINI_API_KEY", []byte("value")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	path := filepath.Join(dir, "GEMINI_API_KEY.enc")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read ciphertext: %v", err)
	}
	data[len(data)-1] ^= 0xff
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to tamper ciphertext: %v", err)
	}

	if _, err := stash.Get("GEMINI_API_KEY"); err == nil {
		t.Fatal("Get() expected error for tampered ciphertext")
	}
}

func TestStash_TruncatedCiphertextFails(t *testing.T) {
	dir := t.TempDir()

	stash := openTestStash(t, dir)
	path := filepath.Join(dir, "GEMINI_API_KEY.enc")
	if err := os.WriteFile(path, []byte("short"), 0o600); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	if _, err := stash.Get("GEMINI_API_KEY"); err == nil {
		t.Fatal("Get() expected error for truncated ciphertext")
	}
}

func TestStash_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}

	dir := t.TempDir()
	stash := openTestStash(t, dir)
	if err := stash.Set("GEMINI_API_KEY", []byte("value")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	for _, name := range []string{"GEMINI_API_KEY.enc", passphraseFile} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("stat %s failed: %v", name, err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Errorf("%s has permissions %o, want 600", name, info.Mode().Perm())
		}
	}
}
