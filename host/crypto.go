package host

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"hash"
	"unicode/utf8"

	"golang.org/x/crypto/pbkdf2"

	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/store"
	"github.com/wippyai/wasm-bridge/wire"
)

// PBKDF2 digests.
const (
	DigestSHA1 int32 = iota
	DigestSHA256
	DigestSHA512
)

// Crypto is the "crypto" module. Results are String values holding raw bytes
// (data handles); a guest sizes its buffer with get_data_len and copies with
// get_data.
type Crypto struct{}

func (Crypto) Namespace() string { return "crypto" }

func (Crypto) GetDataLen(s *store.Store, h wire.Ref) int32 { return s.StringLen(h) }

// GetData copies at most len(dst) bytes of the data behind h into dst.
func (Crypto) GetData(s *store.Store, h wire.Ref, dst wire.MutBytes) { s.ReadString(h, dst) }

func (Crypto) Base64Parse(data wire.Lent) (*store.Value, error) {
	out := make([]byte, base64.StdEncoding.DecodedLen(len(data)))
	n, err := base64.StdEncoding.Decode(out, data)
	if err != nil {
		return nil, errors.Encoding(errors.PhaseHost, data, err)
	}
	return store.NewBytes(out[:n]), nil
}

func (Crypto) Base64String(data wire.Lent) *store.Value {
	return store.NewString(base64.StdEncoding.EncodeToString(data))
}

// Utf8Parse returns the bytes of data after checking they are valid UTF-8.
func (Crypto) Utf8Parse(data wire.Lent) (*store.Value, error) {
	if !utf8.Valid(data) {
		return nil, errors.Encoding(errors.PhaseHost, data, nil)
	}
	return store.NewBytes(data), nil
}

// AESEncrypt encrypts msg with AES-CBC and PKCS#7 padding. The key selects
// AES-128, 192 or 256 by length; iv must be one block.
func (Crypto) AESEncrypt(msg, key, iv wire.Lent) (*store.Value, error) {
	block, err := newCBC(key, iv)
	if err != nil {
		return nil, err
	}
	out := pkcs7Pad(msg, aes.BlockSize)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, out)
	return store.NewBytes(out), nil
}

// AESDecrypt reverses AESEncrypt. Bad padding is an error.
func (Crypto) AESDecrypt(msg, key, iv wire.Lent) (*store.Value, error) {
	block, err := newCBC(key, iv)
	if err != nil {
		return nil, err
	}
	if len(msg) == 0 || len(msg)%aes.BlockSize != 0 {
		return nil, errors.InvalidInput(errors.PhaseHost,
			fmt.Sprintf("ciphertext length %d is not a multiple of the block size", len(msg)))
	}
	out := make([]byte, len(msg))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, msg)
	plain, ok := pkcs7Unpad(out, aes.BlockSize)
	if !ok {
		return nil, errors.New(errors.PhaseHost, errors.KindInvalidData).Detail("bad PKCS#7 padding").Build()
	}
	return store.NewBytes(plain), nil
}

func (Crypto) MD5Hash(data wire.Lent) *store.Value {
	sum := md5.Sum(data)
	return store.NewBytes(sum[:])
}

// PBKDF2 derives keyLen bytes from password and salt. digest is one of the
// Digest constants.
func (Crypto) PBKDF2(password, salt wire.Lent, iterations, keyLen, digest int32) (*store.Value, error) {
	if iterations <= 0 || keyLen <= 0 {
		return nil, errors.InvalidInput(errors.PhaseHost,
			fmt.Sprintf("pbkdf2 needs positive iterations and key length, got %d and %d", iterations, keyLen))
	}
	var h func() hash.Hash
	switch digest {
	case DigestSHA1:
		h = sha1.New
	case DigestSHA256:
		h = sha256.New
	case DigestSHA512:
		h = sha512.New
	default:
		return nil, errors.New(errors.PhaseHost, errors.KindUnsupported).
			Value(digest).
			Detail("unknown pbkdf2 digest").
			Build()
	}
	return store.NewBytes(pbkdf2.Key(password, salt, int(iterations), int(keyLen), h)), nil
}

func newCBC(key, iv []byte) (cipher.Block, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "aes key")
	}
	if len(iv) != aes.BlockSize {
		return nil, errors.InvalidInput(errors.PhaseHost,
			fmt.Sprintf("aes iv must be %d bytes, got %d", aes.BlockSize, len(iv)))
	}
	return block, nil
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	out := make([]byte, len(b), len(b)+n)
	copy(out, b)
	return append(out, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, size int) ([]byte, bool) {
	if len(b) == 0 {
		return nil, false
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, false
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, false
		}
	}
	return b[:len(b)-n], true
}
