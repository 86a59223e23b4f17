package devicelink

// State is the connection state of the device link.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

func (state State) String() string {
	return string(state)
}
