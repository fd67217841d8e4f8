package qr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/skip2/go-qrcode"

	"ms-canteen/internal/models"
)

const DefaultSize = 256

// Payload is what a canteen checkout reads back from a ticket's QR code.
type Payload struct {
	TicketID   string    `json:"tid"`
	EmployeeID string    `json:"eid"`
	Department string    `json:"dep"`
	IssuedAt   time.Time `json:"iat"`
}

type QRGenerator struct {
	secret []byte
	size   int
}

func NewQRGenerator(secret string, size int) *QRGenerator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	if size <= 0 {
		size = DefaultSize
	}
	return &QRGenerator{secret: hashed[:], size: size}
}

// GenerateEncryptedQR renders a PNG QR code holding the encrypted payload.
func (q *QRGenerator) GenerateEncryptedQR(ticket models.Ticket) ([]byte, error) {
	encrypted, err := q.EncryptPayload(Payload{
		TicketID:   ticket.TicketID,
		EmployeeID: ticket.EmployeeID,
		Department: ticket.Department,
		IssuedAt:   ticket.Timestamp.UTC(),
	})
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(encrypted, qrcode.Medium, q.size)
}

func (q *QRGenerator) EncryptPayload(p Payload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return encryptAES(data, q.secret)
}

// DecryptPayload reverses EncryptPayload. It fails for data produced with a
// different secret.
func (q *QRGenerator) DecryptPayload(encoded string) (*Payload, error) {
	data, err := decryptAES(encoded, q.secret)
	if err != nil {
		return nil, err
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("invalid QR payload: %w", err)
	}
	if p.TicketID == "" {
		return nil, errors.New("invalid QR payload: missing ticket id")
	}
	return &p, nil
}

func encryptAES(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]

	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

func decryptAES(encoded string, key []byte) ([]byte, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid QR encoding: %w", err)
	}
	if len(ciphertext) < aes.BlockSize {
		return nil, errors.New("QR data too short")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	iv, body := ciphertext[:aes.BlockSize], ciphertext[aes.BlockSize:]
	plain := make([]byte, len(body))
	cipher.NewCFBDecrypter(block, iv).XORKeyStream(plain, body)
	return plain, nil
}
