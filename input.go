package main

// Key is one of the keys the core queries
type Key int

const (
	KeyLeft Key = iota
	KeyRight
	KeyForceWin
)

// KeyInput answers "is this key currently down"
type KeyInput interface {
	IsKeyDown(k Key) bool
}

// InputState is the latest held-key report from a pilot or controller
type InputState struct {
	Left     bool
	Right    bool
	ForceWin bool
}

// IsKeyDown implements KeyInput
func (s *InputState) IsKeyDown(k Key) bool {
	switch k {
	case KeyLeft:
		return s.Left
	case KeyRight:
		return s.Right
	case KeyForceWin:
		return s.ForceWin
	}
	return false
}

// Binary input frame: [0x01, flags]
const (
	inputFrameTag  = 0x01
	inputFlagLeft  = 0x01
	inputFlagRight = 0x02
	inputFlagWin   = 0x04
)

// DecodeInputFrame parses a 2-byte binary input message
func DecodeInputFrame(msg []byte) (ClientInput, bool) {
	if len(msg) != 2 || msg[0] != inputFrameTag {
		return ClientInput{}, false
	}
	flags := msg[1]
	return ClientInput{
		Left:  flags&inputFlagLeft != 0,
		Right: flags&inputFlagRight != 0,
		Win:   flags&inputFlagWin != 0,
	}, true
}

// EncodeInputFrame is the inverse of DecodeInputFrame
func EncodeInputFrame(in ClientInput) []byte {
	var flags byte
	if in.Left {
		flags |= inputFlagLeft
	}
	if in.Right {
		flags |= inputFlagRight
	}
	if in.Win {
		flags |= inputFlagWin
	}
	return []byte{inputFrameTag, flags}
}
