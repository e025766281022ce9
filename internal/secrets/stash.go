// Package secrets provides an encrypted stash for API keys, kept in the
// state directory so keys never have to live in a project checkout. The
// stash is independent of the project's .env file and never writes to it.
package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/nacl/secretbox"

	"agentenv/internal/fsutil"
)

const (
	keySize   = 32 // NaCl secretbox key
	nonceSize = 24 // NaCl secretbox nonce

	passphraseFile = ".passphrase"
	indexFile      = "index.json"
)

// Entry describes one stored key.
type Entry struct {
	Name     string    `json:"name"`
	StoredAt time.Time `json:"stored_at"`
}

type index struct {
	Entries []Entry `json:"entries"`
}

// Stash stores named keys encrypted with NaCl secretbox. The encryption
// passphrase is generated on first use and kept next to the keys with
// 0600 permissions.
type Stash struct {
	dir    string
	key    *[keySize]byte
	logger *zap.Logger
}

// DefaultDir returns the stash location inside the state directory.
func DefaultDir() string {
	return filepath.Join(fsutil.StateDir(), "keystash")
}

// Open opens the stash at dir, creating it on first use.
func Open(dir string, logger *zap.Logger) (*Stash, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create stash directory: %w", err)
	}

	passphrase, err := loadOrCreatePassphrase(filepath.Join(dir, passphraseFile))
	if err != nil {
		return nil, fmt.Errorf("failed to load passphrase: %w", err)
	}

	key := deriveKey(passphrase)
	return &Stash{
		dir:    dir,
		key:    &key,
		logger: logger,
	}, nil
}

// Set stores value encrypted under name, replacing any previous value.
func (s *Stash) Set(name string, value []byte) error {
	encrypted, err := encrypt(value, s.key)
	if err != nil {
		return fmt.Errorf("encryption failed: %w", err)
	}

	path := s.entryPath(name)
	if err := os.WriteFile(path, encrypted, 0o600); err != nil {
		return fmt.Errorf("failed to write key: %w", err)
	}

	if err := verifyPermissions(path); err != nil {
		s.logger.Warn("stored key has loose permissions", zap.String("path", path), zap.Error(err))
	}
	if err := s.updateIndex(name); err != nil {
		s.logger.Warn("failed to update stash index", zap.String("name", name), zap.Error(err))
	}

	s.logger.Info("key stored", zap.String("name", name))
	return nil
}

// Get retrieves and decrypts the key stored under name.
func (s *Stash) Get(name string) ([]byte, error) {
	path := s.entryPath(name)

	encrypted, err := os.ReadFile(path) // #nosec G304 -- path is constructed from the controlled stash dir
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no key stored under %s", name)
		}
		return nil, fmt.Errorf("failed to read key: %w", err)
	}

	if err := verifyPermissions(path); err != nil {
		s.logger.Warn("key file permissions should be 600", zap.String("path", path))
	}

	value, err := decrypt(encrypted, s.key)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}
	return value, nil
}

// Exists reports whether a key is stored under name.
func (s *Stash) Exists(name string) bool {
	_, err := os.Stat(s.entryPath(name))
	return err == nil
}

// Clear removes the key stored under name.
func (s *Stash) Clear(name string) error {
	if err := os.Remove(s.entryPath(name)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no key stored under %s", name)
		}
		return fmt.Errorf("failed to remove key: %w", err)
	}

	if err := s.removeFromIndex(name); err != nil {
		s.logger.Warn("failed to update stash index", zap.String("name", name), zap.Error(err))
	}

	s.logger.Info("key cleared", zap.String("name", name))
	return nil
}

// List returns the stored entries with their timestamps.
func (s *Stash) List() ([]Entry, error) {
	idx, err := s.loadIndex()
	if err != nil {
		return nil, err
	}
	return idx.Entries, nil
}

func (s *Stash) entryPath(name string) string {
	return filepath.Join(s.dir, name+".enc")
}

func (s *Stash) updateIndex(name string) error {
	idx, err := s.loadIndex()
	if err != nil {
		idx = &index{Entries: []Entry{}}
	}

	found := false
	for i, entry := range idx.Entries {
		if entry.Name == name {
			idx.Entries[i].StoredAt = time.Now().UTC()
			found = true
			break
		}
	}
	if !found {
		idx.Entries = append(idx.Entries, Entry{
			Name:     name,
			StoredAt: time.Now().UTC(),
		})
	}

	return s.saveIndex(idx)
}

func (s *Stash) removeFromIndex(name string) error {
	idx, err := s.loadIndex()
	if err != nil {
		return err
	}

	filtered := make([]Entry, 0, len(idx.Entries))
	for _, entry := range idx.Entries {
		if entry.Name != name {
			filtered = append(filtered, entry)
		}
	}
	idx.Entries = filtered
	return s.saveIndex(idx)
}

func (s *Stash) loadIndex() (*index, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, indexFile)) // #nosec G304 -- path is constructed from the controlled stash dir
	if err != nil {
		if os.IsNotExist(err) {
			return &index{Entries: []Entry{}}, nil
		}
		return nil, fmt.Errorf("failed to read stash index: %w", err)
	}

	var idx index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to parse stash index: %w", err)
	}
	return &idx, nil
}

func (s *Stash) saveIndex(idx *index) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stash index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, indexFile), data, 0o600); err != nil {
		return fmt.Errorf("failed to write stash index: %w", err)
	}
	return nil
}

// verifyPermissions checks that path is readable only by its owner.
func verifyPermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Mode().Perm() != 0o600 {
		return fmt.Errorf("file has permissions %o, expected 600", info.Mode().Perm())
	}
	return nil
}

// deriveKey derives the secretbox key from a passphrase using SHA-256.
func deriveKey(passphrase string) [keySize]byte {
	return sha256.Sum256([]byte(passphrase))
}

// encrypt seals plaintext with a random nonce; the nonce is prepended to
// the returned ciphertext.
func encrypt(plaintext []byte, key *[keySize]byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, key), nil
}

// decrypt opens ciphertext produced by encrypt.
func decrypt(encrypted []byte, key *[keySize]byte) ([]byte, error) {
	if len(encrypted) < nonceSize {
		return nil, fmt.Errorf("encrypted data too short (minimum %d bytes)", nonceSize)
	}

	var nonce [nonceSize]byte
	copy(nonce[:], encrypted[:nonceSize])

	plaintext, ok := secretbox.Open(nil, encrypted[nonceSize:], &nonce, key)
	if !ok {
		return nil, fmt.Errorf("decryption failed (wrong key or corrupted data)")
	}
	return plaintext, nil
}

func loadOrCreatePassphrase(path string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is constructed from the controlled stash dir
	if err == nil {
		return string(data), nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read passphrase file: %w", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}
	passphrase := fmt.Sprintf("%x", raw)

	if err := os.WriteFile(path, []byte(passphrase), 0o600); err != nil {
		return "", fmt.Errorf("failed to write passphrase: %w", err)
	}
	return passphrase, nil
}
