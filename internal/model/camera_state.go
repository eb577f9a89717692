package model

// CameraState enumerates the camera lifecycle states of spec.md §4.8.
type CameraState int

const (
	Disconnected CameraState = iota
	Connecting
	Connected
	StartingGrab
	Grabbing
	StoppingGrab
	Disconnecting
	Error
)

var cameraStateNames = [...]string{
	"Disconnected", "Connecting", "Connected", "StartingGrab",
	"Grabbing", "StoppingGrab", "Disconnecting", "Error",
}

func (s CameraState) String() string {
	if int(s) < len(cameraStateNames) {
		return cameraStateNames[s]
	}
	return "Unknown"
}
