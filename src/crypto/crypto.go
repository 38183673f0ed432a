package crypto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fernet/fernet-go"
)

// noTTL disables the token age check; stored refresh tokens never expire on
// our side.
const noTTL = -1

// Crypto is a MultiFernet: encrypt with the first key, decrypt with any.
// Rotating means prepending a new key and keeping the old ones until every
// row has been rewritten.
type Crypto struct {
	keys []*fernet.Key
}

func New(keys string) (*Crypto, error) {
	parts := []string{}
	for _, k := range strings.Split(keys, ",") {
		if k = strings.TrimSpace(k); k != "" {
			parts = append(parts, k)
		}
	}
	if len(parts) == 0 {
		return nil, errors.New("crypto: no fernet keys")
	}
	decoded, err := fernet.DecodeKeys(parts...)
	if err != nil {
		return nil, fmt.Errorf("crypto: %w", err)
	}
	return &Crypto{keys: decoded}, nil
}

func GenerateKey() (string, error) {
	var k fernet.Key
	if err := k.Generate(); err != nil {
		return "", err
	}
	return k.Encode(), nil
}

func (c *Crypto) Encrypt(data string) (string, error) {
	tok, err := fernet.EncryptAndSign([]byte(data), c.keys[0])
	if err != nil {
		return "", fmt.Errorf("crypto: encrypt: %w", err)
	}
	return string(tok), nil
}

func (c *Crypto) Decrypt(data string) (string, error) {
	msg := fernet.VerifyAndDecrypt([]byte(data), noTTL, c.keys)
	if msg == nil {
		return "", errors.New("crypto: invalid token")
	}
	return string(msg), nil
}

// DecryptFallback returns data unchanged when it does not decrypt, so rows
// written before encryption was enabled keep working.
func (c *Crypto) DecryptFallback(data string) string {
	out, err := c.Decrypt(data)
	if err != nil {
		return data
	}
	return out
}
