package fuscrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"samfw/pkg/helpers"
)

// Fixed FUS key material. These are public constants baked into every
// Samsung update client; nothing here is secret.
const (
	key1 = "vicopx7dqu06emacgpnpy8j8zwhduwlh"
	key2 = "9u7qab84rpc16gvk"
)

const blockSize = 16

// Pad applies PKCS#7 padding to reach a 16-byte boundary
func Pad(data []byte) []byte {
	padLen := blockSize - (len(data) % blockSize)
	out := make([]byte, len(data)+padLen)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(padLen)
	}
	return out
}

// Unpad removes PKCS#7 padding
func Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, helpers.ErrInvalidBlockSize.WithDetails(fmt.Sprintf("length %d", len(data)))
	}
	padLen := int(data[len(data)-1])
	if padLen < 1 || padLen > blockSize || padLen > len(data) {
		return nil, helpers.ErrInvalidBlockSize.WithDetails(fmt.Sprintf("padding %d", padLen))
	}
	return data[:len(data)-padLen], nil
}

// CBCEncrypt encrypts with AES-CBC using the first 16 key bytes as IV,
// padding the input first.
func CBCEncrypt(data, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	padded := Pad(data)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, key[:blockSize]).CryptBlocks(out, padded)
	return out, nil
}

// CBCDecrypt decrypts AES-CBC ciphertext and removes the padding
func CBCDecrypt(data, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, helpers.ErrInvalidBlockSize.WithDetails(fmt.Sprintf("length %d", len(data)))
	}
	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, key[:blockSize]).CryptBlocks(out, data)
	return Unpad(out)
}

// DeriveKey builds the 32-byte session key from a 16-character server nonce:
// one key1 character selected per nonce character, followed by key2.
func DeriveKey(nonce string) ([]byte, error) {
	if len(nonce) < blockSize {
		return nil, fmt.Errorf("nonce too short: %d", len(nonce))
	}
	key := make([]byte, 0, 2*blockSize)
	for i := 0; i < blockSize; i++ {
		key = append(key, key1[int(nonce[i])%blockSize])
	}
	key = append(key, key2...)
	return key, nil
}

// MakeSignature computes base64(AES-CBC(nonce, DeriveKey(nonce)))
func MakeSignature(nonce string) (string, error) {
	key, err := DeriveKey(nonce)
	if err != nil {
		return "", err
	}
	raw, err := CBCEncrypt([]byte(nonce), key)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecryptNonce decrypts a base64 NONCE header into its plaintext form
func DecryptNonce(encNonce string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encNonce)
	if err != nil {
		return "", err
	}
	plain, err := CBCDecrypt(data, []byte(key1))
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// EncryptNonce is the inverse of DecryptNonce
func EncryptNonce(nonce string) (string, error) {
	raw, err := CBCEncrypt([]byte(nonce), []byte(key1))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// LogicCheck picks characters from input using the low 4 bits of each nonce
// character. The input must be at least 16 characters long.
func LogicCheck(input, nonce string) (string, error) {
	if len(input) < blockSize {
		return "", fmt.Errorf("logic check input too short: %d", len(input))
	}
	out := make([]byte, 0, len(nonce))
	for i := 0; i < len(nonce); i++ {
		out = append(out, input[int(nonce[i])&0x0F])
	}
	return string(out), nil
}

// ECBDecryptStream decrypts an AES-ECB stream of exactly total bytes from
// fin to fout, unpadding the final block. onBlock, when non-nil, is invoked
// before each buffer is read and again after it is written, with the running
// byte count read; returning an error aborts the decrypt.
func ECBDecryptStream(fin io.Reader, fout io.Writer, key []byte, total int64, onBlock func(read int64) error) error {
	if total%blockSize != 0 {
		return helpers.ErrInvalidBlockSize.WithDetails(fmt.Sprintf("input size %d", total))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return err
	}

	const bufSize = 4096
	buf := make([]byte, bufSize)
	var pos int64

	for pos < total {
		n := int64(bufSize)
		if total-pos < n {
			n = total - pos
		}
		if onBlock != nil {
			if err := onBlock(pos); err != nil {
				return err
			}
		}
		chunk := buf[:n]
		if _, err := io.ReadFull(fin, chunk); err != nil {
			return err
		}
		for off := int64(0); off < n; off += blockSize {
			block.Decrypt(chunk[off:off+blockSize], chunk[off:off+blockSize])
		}
		pos += n
		if pos == total {
			unpadded, err := Unpad(chunk[n-blockSize : n])
			if err != nil {
				return err
			}
			chunk = append(chunk[:n-blockSize], unpadded...)
		}
		if _, err := fout.Write(chunk); err != nil {
			return err
		}
		if onBlock != nil {
			if err := onBlock(pos); err != nil {
				return err
			}
		}
	}
	return nil
}

// MD5Hex returns the hex MD5 digest of data
func MD5Hex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// MD5Digest returns the raw MD5 digest of data, used as an AES-128 key
func MD5Digest(data []byte) []byte {
	sum := md5.Sum(data)
	return sum[:]
}

// MD5File streams a file through MD5 and returns the hex digest
func MD5File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
