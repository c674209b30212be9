//go:build wasip1

package guest

// PBKDF2 digests, matching the host's numbering.
const (
	SHA1 int32 = iota
	SHA256
	SHA512
)

// data copies a crypto result out of the host and releases it.
func data(ref int32) ([]byte, error) {
	h, err := Wrap(ref)
	if err != nil {
		return nil, err
	}
	defer h.Release()
	n := cryptoGetDataLen(int32(h.Ref()))
	buf := make([]byte, n)
	p, size := bytesPtr(buf)
	cryptoGetData(int32(h.Ref()), p, size)
	return buf, nil
}

func Base64Decode(s string) ([]byte, error) {
	p, n := stringPtr(s)
	return data(cryptoBase64Parse(p, n))
}

func Base64Encode(b []byte) (string, error) {
	p, n := bytesPtr(b)
	out, err := data(cryptoBase64String(p, n))
	return string(out), err
}

// ValidUTF8 returns b when it is valid UTF-8.
func ValidUTF8(b []byte) ([]byte, error) {
	p, n := bytesPtr(b)
	return data(cryptoUtf8Parse(p, n))
}

// AESEncrypt encrypts msg with AES-CBC and PKCS#7 padding.
func AESEncrypt(msg, key, iv []byte) ([]byte, error) {
	mp, mn := bytesPtr(msg)
	kp, kn := bytesPtr(key)
	ip, in := bytesPtr(iv)
	return data(cryptoAESEncrypt(mp, mn, kp, kn, ip, in))
}

func AESDecrypt(msg, key, iv []byte) ([]byte, error) {
	mp, mn := bytesPtr(msg)
	kp, kn := bytesPtr(key)
	ip, in := bytesPtr(iv)
	return data(cryptoAESDecrypt(mp, mn, kp, kn, ip, in))
}

func MD5(b []byte) ([]byte, error) {
	p, n := bytesPtr(b)
	return data(cryptoMD5Hash(p, n))
}

// PBKDF2 derives keyLen bytes; digest is SHA1, SHA256 or SHA512.
func PBKDF2(password, salt []byte, iterations, keyLen int, digest int32) ([]byte, error) {
	pp, pn := bytesPtr(password)
	sp, sn := bytesPtr(salt)
	return data(cryptoPBKDF2(pp, pn, sp, sn, int32(iterations), int32(keyLen), digest))
}
