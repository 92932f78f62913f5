package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// KeyPair 是签发与校验令牌用的 RSA 密钥对。
type KeyPair struct {
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
}

// ParseKeyPair decodes PEM blocks and checks that the public key belongs to the private key.
func ParseKeyPair(privatePEM, publicPEM []byte) (KeyPair, error) {
	if len(privatePEM) == 0 || len(publicPEM) == 0 {
		return KeyPair{}, errors.New("both private and public key pem are required")
	}
	priv, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
	if err != nil {
		return KeyPair{}, fmt.Errorf("private key: %w", err)
	}
	pub, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
	if err != nil {
		return KeyPair{}, fmt.Errorf("public key: %w", err)
	}
	if !priv.PublicKey.Equal(pub) {
		return KeyPair{}, errors.New("public key does not match private key")
	}
	return KeyPair{Private: priv, Public: pub}, nil
}

// LoadKeyPair reads the two PEM files written by `admin --gen-keys`.
func LoadKeyPair(privatePath, publicPath string) (KeyPair, error) {
	privatePEM, err := os.ReadFile(privatePath)
	if err != nil {
		return KeyPair{}, fmt.Errorf("read private key: %w", err)
	}
	publicPEM, err := os.ReadFile(publicPath)
	if err != nil {
		return KeyPair{}, fmt.Errorf("read public key: %w", err)
	}
	return ParseKeyPair(privatePEM, publicPEM)
}

// GenerateKeyPEM creates an RSA key pair encoded as PKCS#1 private / PKIX public PEM blocks.
func GenerateKeyPEM(bits int) (privatePEM, publicPEM []byte, err error) {
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, nil, fmt.Errorf("generate rsa key: %w", err)
	}
	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal public key: %w", err)
	}
	privatePEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	publicPEM = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pub})
	return privatePEM, publicPEM, nil
}
