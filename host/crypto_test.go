package host

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/store"
	"github.com/wippyai/wasm-bridge/wire"
)

func TestDataHandles(t *testing.T) {
	s := store.New()
	c := Crypto{}
	h := s.Put(c.Base64String(wire.Lent("hello")))

	n := c.GetDataLen(s, h)
	require.Equal(t, int32(8), n)
	buf := make([]byte, n)
	c.GetData(s, h, buf)
	assert.Equal(t, "aGVsbG8=", string(buf))

	short := make([]byte, 3)
	c.GetData(s, h, short)
	assert.Equal(t, "aGV", string(short))

	assert.Zero(t, c.GetDataLen(s, wire.FailedRef))
}

func TestBase64Parse(t *testing.T) {
	v, err := Crypto{}.Base64Parse(wire.Lent("aGVsbG8="))
	require.NoError(t, err)
	assert.Equal(t, "hello", v.Str())

	_, err = Crypto{}.Base64Parse(wire.Lent("!!not base64"))
	assert.True(t, errors.IsKind(err, errors.KindEncoding))
}

func TestUtf8Parse(t *testing.T) {
	v, err := Crypto{}.Utf8Parse(wire.Lent("héllo"))
	require.NoError(t, err)
	assert.Equal(t, "héllo", v.Str())

	_, err = Crypto{}.Utf8Parse(wire.Lent{0xc3, 0x28})
	assert.True(t, errors.IsKind(err, errors.KindEncoding))
}

func TestMD5Hash(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "d41d8cd98f00b204e9800998ecf8427e"},
		{"abc", "900150983cd24fb0d6963f7d28e17f72"},
	}
	for _, tt := range tests {
		got := Crypto{}.MD5Hash(wire.Lent(tt.in))
		assert.Equal(t, tt.want, hex.EncodeToString(got.Bytes()))
	}
}

func TestPBKDF2(t *testing.T) {
	tests := []struct {
		name   string
		iter   int32
		keyLen int32
		digest int32
		want   string
	}{
		{"sha1 c=1", 1, 20, DigestSHA1, "0c60c80f961f0e71f3a9b524af6012062fe037a6"},
		{"sha1 c=2", 2, 20, DigestSHA1, "ea6c014dc72d6f8ccd1ed92ace1d41f0d8de8957"},
		{"sha256 c=1", 1, 32, DigestSHA256, "120fb6cffcf8b32c43e7225256c4f837a86548c92ccc35480805987cb70be17b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Crypto{}.PBKDF2(wire.Lent("password"), wire.Lent("salt"), tt.iter, tt.keyLen, tt.digest)
			require.NoError(t, err)
			assert.Equal(t, tt.want, hex.EncodeToString(v.Bytes()))
		})
	}

	v, err := Crypto{}.PBKDF2(wire.Lent("password"), wire.Lent("salt"), 1, 64, DigestSHA512)
	require.NoError(t, err)
	assert.Len(t, v.Bytes(), 64)

	_, err = Crypto{}.PBKDF2(wire.Lent("p"), wire.Lent("s"), 1, 16, 9)
	assert.True(t, errors.IsKind(err, errors.KindUnsupported))
	_, err = Crypto{}.PBKDF2(wire.Lent("p"), wire.Lent("s"), 0, 16, DigestSHA1)
	assert.True(t, errors.IsKind(err, errors.KindInvalidInput))
}

func TestAESRoundTrip(t *testing.T) {
	key := wire.Lent("0123456789abcdef")
	iv := wire.Lent("fedcba9876543210")

	for _, msg := range []string{"", "short", "exactly16bytes!!", "a message spanning several AES blocks"} {
		t.Run(msg, func(t *testing.T) {
			enc, err := Crypto{}.AESEncrypt(wire.Lent(msg), key, iv)
			require.NoError(t, err)
			assert.Zero(t, len(enc.Bytes())%16)
			assert.Greater(t, len(enc.Bytes()), len(msg))

			dec, err := Crypto{}.AESDecrypt(wire.Lent(enc.Bytes()), key, iv)
			require.NoError(t, err)
			assert.Equal(t, msg, dec.Str())
		})
	}
}

func TestAESRejectsBadInput(t *testing.T) {
	key := wire.Lent("0123456789abcdef")
	iv := wire.Lent("fedcba9876543210")

	_, err := Crypto{}.AESEncrypt(wire.Lent("x"), wire.Lent("short key"), iv)
	assert.True(t, errors.IsKind(err, errors.KindInvalidInput))
	_, err = Crypto{}.AESEncrypt(wire.Lent("x"), key, wire.Lent("iv"))
	assert.True(t, errors.IsKind(err, errors.KindInvalidInput))
	_, err = Crypto{}.AESDecrypt(wire.Lent("fifteen bytes!!"), key, iv)
	assert.True(t, errors.IsKind(err, errors.KindInvalidInput))
}

func TestPKCS7Unpad(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		ok   bool
	}{
		{"full block", append(make([]byte, 0), 16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 16), true},
		{"one byte", []byte{'a', 'b', 'c', 1}, true},
		{"zero", []byte{'a', 0}, false},
		{"too long", []byte{'a', 17}, false},
		{"mixed", []byte{'a', 1, 2}, false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := pkcs7Unpad(tt.in, 16)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
