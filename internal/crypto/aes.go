package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"
)

var (
	ErrKeySize    = errors.New("chave AES deve ter 32 bytes (AES-256)")
	ErrCiphertext = errors.New("ciphertext inválido")
)

// EncryptAES cifra dados usando AES-256-GCM. O nonce vai prefixado no resultado.
func EncryptAES(key, plaintext []byte) ([]byte, error) {
	aesGCM, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return aesGCM.Seal(nonce, nonce, plaintext, nil), nil
}

// DecryptAES decifra dados gerados por EncryptAES.
func DecryptAES(key, ciphertext []byte) ([]byte, error) {
	aesGCM, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < aesGCM.NonceSize() {
		return nil, ErrCiphertext
	}
	nonce := ciphertext[:aesGCM.NonceSize()]
	data := ciphertext[aesGCM.NonceSize():]
	plaintext, err := aesGCM.Open(nil, nonce, data, nil)
	if err != nil {
		return nil, ErrCiphertext
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, ErrKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
