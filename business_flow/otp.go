package businessflow

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/amirphl/dti-portal/utils"
)

var otpDigitRange = big.NewInt(10)

// GenerateOTPCode returns a VerificationCodeLength long numeric code.
// Each digit is drawn independently and uniformly from 0-9.
func GenerateOTPCode() (string, error) {
	var b strings.Builder
	b.Grow(utils.VerificationCodeLength)
	for i := 0; i < utils.VerificationCodeLength; i++ {
		n, err := rand.Int(rand.Reader, otpDigitRange)
		if err != nil {
			return "", fmt.Errorf("failed to generate OTP digit: %w", err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
