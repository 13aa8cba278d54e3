package domain

// RoomID is an opaque caller-supplied token. The server does not
// enforce a format; callers case-normalize before sending.
type RoomID string
