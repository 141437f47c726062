// Package cryptox keeps the symmetric key pair used to protect secrets in
// the persisted settings record and encrypts/decrypts small strings with it.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/dmitrijs2005/mediaoffload/internal/common"
	"github.com/dmitrijs2005/mediaoffload/internal/filex"
	"golang.org/x/crypto/hkdf"
)

const (
	keySize = 32
	ivSize  = aes.BlockSize
	tagSize = sha256.Size

	hkdfInfo = "mediaoffload settings encryption v1"
)

// keyFile is the on-disk layout of the credential file.
type keyFile struct {
	Key string `json:"key"`
	IV  string `json:"iv"`
}

// Store encrypts and decrypts secrets with the key pair kept in a JSON file.
//
// The file holds a 32-byte key and a 16-byte IV, both base64-encoded. It is
// created once by Bootstrap and read on every Encrypt/Decrypt call, so a
// replaced file takes effect immediately and a removed one fails loudly.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore returns a Store backed by the key file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the location of the key file.
func (s *Store) Path() string {
	return s.path
}

// Bootstrap creates the key file if it does not exist yet.
//
// The parent directory is created with 0700 and the file with 0600. An
// existing file is never touched. Concurrent first runs, in this process or
// in others, converge on a single file: the key pair is written to a
// temporary file and hard-linked into place, and the loser of the race
// discards its own material.
//
// Errors wrap common.ErrStorageUnavailable.
func (s *Store) Bootstrap() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: stat %s: %w", common.ErrStorageUnavailable, s.path, err)
	}

	if err := filex.EnsureDir(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("%w: %w", common.ErrStorageUnavailable, err)
	}

	data, err := json.Marshal(keyFile{
		Key: base64.StdEncoding.EncodeToString(common.GenerateRandByteArray(keySize)),
		IV:  base64.StdEncoding.EncodeToString(common.GenerateRandByteArray(ivSize)),
	})
	if err != nil {
		return fmt.Errorf("%w: encode key file: %w", common.ErrStorageUnavailable, err)
	}

	suffix, err := common.MakeRandHexString(8)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrStorageUnavailable, err)
	}
	tmp := s.path + ".tmp-" + suffix
	defer os.Remove(tmp)

	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("%w: write %s: %w", common.ErrStorageUnavailable, tmp, err)
	}
	if err := os.Chmod(tmp, 0o600); err != nil {
		return fmt.Errorf("%w: chmod %s: %w", common.ErrStorageUnavailable, tmp, err)
	}

	if err := os.Link(tmp, s.path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil
		}
		return fmt.Errorf("%w: link %s: %w", common.ErrStorageUnavailable, s.path, err)
	}

	return nil
}

// Encrypt returns base64(len(iv) || iv || AES-256-CBC(plaintext) || tag).
//
// A fresh IV is drawn for every call, so equal plaintexts produce different
// ciphertexts. The encryption and MAC keys are derived from the stored key
// with HKDF-SHA256; the tag is HMAC-SHA256 over everything before it.
//
// Errors wrap common.ErrCredentialsUnavailable.
func (s *Store) Encrypt(plaintext string) (string, error) {
	encKey, macKey, err := s.keys()
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrCredentialsUnavailable, err)
	}

	iv := common.GenerateRandByteArray(ivSize)
	padded := pad([]byte(plaintext), aes.BlockSize)

	msg := make([]byte, 1+ivSize+len(padded))
	msg[0] = byte(ivSize)
	copy(msg[1:], iv)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(msg[1+ivSize:], padded)

	mac := hmac.New(sha256.New, macKey)
	mac.Write(msg)

	return base64.StdEncoding.EncodeToString(mac.Sum(msg)), nil
}

// Decrypt reverses Encrypt.
//
// Input that is not base64, is malformed, or fails authentication yields
// common.ErrInvalidCiphertext, which callers use to tell stored plaintext
// apart from stored ciphertext. A missing or corrupt key file yields
// common.ErrCredentialsUnavailable.
func (s *Store) Decrypt(ciphertext string) (string, error) {
	encKey, macKey, err := s.keys()
	if err != nil {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: not base64", common.ErrInvalidCiphertext)
	}

	if len(raw) < 1+ivSize+aes.BlockSize+tagSize || int(raw[0]) != ivSize {
		return "", fmt.Errorf("%w: bad length", common.ErrInvalidCiphertext)
	}
	body := raw[1+ivSize : len(raw)-tagSize]
	if len(body)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: bad length", common.ErrInvalidCiphertext)
	}

	msg, tag := raw[:len(raw)-tagSize], raw[len(raw)-tagSize:]
	mac := hmac.New(sha256.New, macKey)
	mac.Write(msg)
	if !hmac.Equal(tag, mac.Sum(nil)) {
		return "", fmt.Errorf("%w: authentication failed", common.ErrInvalidCiphertext)
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrCredentialsUnavailable, err)
	}

	plain := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, raw[1:1+ivSize]).CryptBlocks(plain, body)

	plain, err = unpad(plain, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// IsEncrypted reports whether value decrypts successfully to something
// other than itself. Empty values are never considered encrypted.
func (s *Store) IsEncrypted(value string) bool {
	if value == "" {
		return false
	}
	plain, err := s.Decrypt(value)
	return err == nil && plain != value
}

// keys loads the key file and derives the encryption and MAC keys.
func (s *Store) keys() (encKey, macKey []byte, err error) {
	key, _, err := s.loadPair()
	if err != nil {
		return nil, nil, err
	}
	defer common.WipeByteArray(key)

	derived := make([]byte, 2*keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, key, nil, []byte(hkdfInfo)), derived); err != nil {
		return nil, nil, fmt.Errorf("%w: derive keys: %w", common.ErrCredentialsUnavailable, err)
	}
	return derived[:keySize], derived[keySize:], nil
}

// loadPair reads and validates the key file.
func (s *Store) loadPair() (key, iv []byte, err error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read %s: %w", common.ErrCredentialsUnavailable, s.path, err)
	}

	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, nil, fmt.Errorf("%w: parse %s: %w", common.ErrCredentialsUnavailable, s.path, err)
	}
	if kf.Key == "" || kf.IV == "" {
		return nil, nil, fmt.Errorf("%w: key or iv missing from %s", common.ErrCredentialsUnavailable, s.path)
	}

	key, err = base64.StdEncoding.DecodeString(kf.Key)
	if err != nil || len(key) != keySize {
		return nil, nil, fmt.Errorf("%w: malformed key in %s", common.ErrCredentialsUnavailable, s.path)
	}
	iv, err = base64.StdEncoding.DecodeString(kf.IV)
	if err != nil || len(iv) != ivSize {
		return nil, nil, fmt.Errorf("%w: malformed iv in %s", common.ErrCredentialsUnavailable, s.path)
	}
	return key, iv, nil
}

// pad applies PKCS#7 padding.
func pad(b []byte, size int) []byte {
	n := size - len(b)%size
	out := make([]byte, len(b)+n)
	copy(out, b)
	for i := len(b); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

func unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, fmt.Errorf("%w: bad padding", common.ErrInvalidCiphertext)
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size {
		return nil, fmt.Errorf("%w: bad padding", common.ErrInvalidCiphertext)
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, fmt.Errorf("%w: bad padding", common.ErrInvalidCiphertext)
		}
	}
	return b[:len(b)-n], nil
}
