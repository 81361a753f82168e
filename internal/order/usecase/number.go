package usecase

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const (
	orderNumberSuffixLen = 9
	base36               = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// NewOrderNumber formats ORD-<unix-millis>-<9 upper-case base36 chars>.
func NewOrderNumber(now time.Time) (string, error) {
	var sb strings.Builder
	limit := big.NewInt(int64(len(base36)))
	for i := 0; i < orderNumberSuffixLen; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		sb.WriteByte(base36[n.Int64()])
	}
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), strings.ToUpper(sb.String())), nil
}
