package model

// MessageType identifies race events published to external consumers
type MessageType int

const (
	MTEmpty       MessageType = 0
	MTBurst       MessageType = 1 // celebratory or impact particles
	MTCameraShake MessageType = 2
	MTKeyFeedback MessageType = 3
	MTSpeedTrail  MessageType = 4
	MTCountdown   MessageType = 5
	MTFinish      MessageType = 6 // player finish place
	MTPhase       MessageType = 7
	MTSnapshot    MessageType = 8
)

func (m MessageType) Subject() string {
	switch m {
	case MTBurst:
		return "burst"
	case MTCameraShake:
		return "shake"
	case MTKeyFeedback:
		return "key"
	case MTSpeedTrail:
		return "trail"
	case MTCountdown:
		return "countdown"
	case MTFinish:
		return "finish"
	case MTPhase:
		return "phase"
	case MTSnapshot:
		return "snapshot"
	}
	return "empty"
}
