package utils

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// GenerateSessionID derives a short session ID from client characteristics.
// The value rotates every hour.
func GenerateSessionID(input string) string {
	hash := md5.Sum([]byte(input + fmt.Sprintf("%d", time.Now().Unix()/3600)))
	return hex.EncodeToString(hash[:])[:16]
}

// MD5Hash generates MD5 hash of input string
func MD5Hash(input string) string {
	hash := md5.Sum([]byte(input))
	return hex.EncodeToString(hash[:])
}

// GenerateRandomID returns length lowercase hex characters.
func GenerateRandomID(length int) string {
	bytes := make([]byte, (length+1)/2)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp-based ID
		id := fmt.Sprintf("%x", time.Now().UnixNano())
		if len(id) > length {
			id = id[len(id)-length:]
		}
		return id
	}
	return hex.EncodeToString(bytes)[:length]
}
