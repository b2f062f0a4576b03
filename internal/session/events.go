package session

// Kind identifies a connection event.
type Kind int

const (
	KindConnect Kind = iota
	KindJoin
	KindChat
	KindTyping
	KindStopTyping
	KindDisconnect
)

func (k Kind) String() string {
	switch k {
	case KindConnect:
		return "connect"
	case KindJoin:
		return "join"
	case KindChat:
		return "chat"
	case KindTyping:
		return "typing"
	case KindStopTyping:
		return "stop_typing"
	case KindDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// Event is one input to the session state machine.
type Event struct {
	Kind         Kind
	ConnectionID string
	Nickname     string
	Credential   string
	Text         string
}

func Connect(connectionID string) Event {
	return Event{Kind: KindConnect, ConnectionID: connectionID}
}

func Join(connectionID, nickname, credential string) Event {
	return Event{Kind: KindJoin, ConnectionID: connectionID, Nickname: nickname, Credential: credential}
}

func Chat(connectionID, text string) Event {
	return Event{Kind: KindChat, ConnectionID: connectionID, Text: text}
}

func Typing(connectionID string) Event {
	return Event{Kind: KindTyping, ConnectionID: connectionID}
}

func StopTyping(connectionID string) Event {
	return Event{Kind: KindStopTyping, ConnectionID: connectionID}
}

func Disconnect(connectionID string) Event {
	return Event{Kind: KindDisconnect, ConnectionID: connectionID}
}
