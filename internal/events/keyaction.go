package events

// KeyAction is the change made by an external key update.
//
//go:generate go tool enumer -type=KeyAction -trimprefix=KeyAction -json
type KeyAction int

const (
	KeyActionCreate KeyAction = iota
	KeyActionUpdate
	KeyActionDelete
)
