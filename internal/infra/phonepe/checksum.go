package phonepe

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	payPath    = "/pg/v1/pay"
	statusPath = "/pg/v1/status"
)

// Checksum builds an X-VERIFY value: SHA256(payload + salt) + "###" + index.
func Checksum(payload, saltKey string, saltIndex int) string {
	sum := sha256.Sum256([]byte(payload + saltKey))
	return fmt.Sprintf("%s###%d", hex.EncodeToString(sum[:]), saltIndex)
}

func PayChecksum(base64Payload, saltKey string, saltIndex int) string {
	return Checksum(base64Payload+payPath, saltKey, saltIndex)
}

func StatusChecksum(merchantID, txnID, saltKey string, saltIndex int) string {
	return Checksum(statusURLPath(merchantID, txnID), saltKey, saltIndex)
}

func statusURLPath(merchantID, txnID string) string {
	return statusPath + "/" + merchantID + "/" + txnID
}

func verifyChecksum(header, payload, saltKey string, saltIndex int) bool {
	expected := Checksum(payload, saltKey, saltIndex)
	got := strings.TrimSpace(header)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}
