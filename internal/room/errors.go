package room

import "errors"

// ErrRoomFull rejects a join past the member cap.
var ErrRoomFull = errors.New("room is full")
