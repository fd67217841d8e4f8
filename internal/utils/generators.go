package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// GenerateTicketID derives a ticket id from the issuance time. The random
// suffix keeps ids unique when two tickets are issued in the same millisecond.
func GenerateTicketID(issuedAt time.Time) string {
	randomNum, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return fmt.Sprintf("tkt_%d_%06d", issuedAt.UnixMilli(), issuedAt.Nanosecond()%1000000)
	}
	return fmt.Sprintf("tkt_%d_%06d", issuedAt.UnixMilli(), randomNum.Int64())
}

func GenerateEventID() string {
	return uuid.NewString()
}
