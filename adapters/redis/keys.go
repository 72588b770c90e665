package redis

import "fmt"

const keyPrefix = "abaccess"

func sessionKey(tokenHash string) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, tokenHash)
}

func sessionKeyPattern() string {
	return keyPrefix + ":session:*"
}
