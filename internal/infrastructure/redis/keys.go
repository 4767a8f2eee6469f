package redis

import "fmt"

const keyPrefix = "tablecall"

func sessionKey(chatID int64) string {
	return fmt.Sprintf("%s:session:%d", keyPrefix, chatID)
}
