package main

import (
	"direct-chat/repositories"
	"fmt"

	"github.com/mama165/sdk-go/database"
)

// MessageMapper renders a stored message in the Badger debug inspector.
func MessageMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)

	message, err := repositories.DecodeMessage(val)
	if err != nil {
		row.Detail = "Error: decode failed"
		return row
	}
	row.Type = "MESSAGE"
	row.Detail = fmt.Sprintf("%s -> %s: %s", message.SenderID, message.ReceiverID, message.Body)
	return row
}
