package proto

// Tags are the first element of every encoded frame.
const (
	TagInit       = "Init"
	TagJoined     = "Joined"
	TagLeft       = "Left"
	TagPlayerMove = "PlayerMove"
	TagKick       = "Kick"
	TagMove       = "Move"
)

// Outbound is a server-to-client message. The set is closed: only the types in
// this package implement it.
type Outbound interface {
	Tag() string
	outbound()
}

// Inbound is a client-to-server message. The sender is implied by the
// connection, so inbound messages carry no id.
type Inbound interface {
	Tag() string
	inbound()
}

// Init is sent once to a freshly registered client with its assigned id.
type Init struct {
	ID uint32
}

// Joined announces a newly registered client to everybody else.
type Joined struct {
	ID uint32
}

// Left announces a disconnected client to the remaining ones.
type Left struct {
	ID uint32
}

// PlayerMove echoes a client's reported position and velocity.
type PlayerMove struct {
	ID   uint32
	X    float64
	Y    float64
	VelX float64
	VelY float64
}

// Kick echoes a client's kick and its direction.
type Kick struct {
	ID   uint32
	X    float64
	Y    float64
	DirX float64
	DirY float64
}

// Move is a client's position/velocity report.
type Move struct {
	X    float64
	Y    float64
	VelX float64
	VelY float64
}

// KickInput is a client's kick report. It shares the "Kick" tag with the
// outbound Kick but has no id field.
type KickInput struct {
	X    float64
	Y    float64
	DirX float64
	DirY float64
}

func (Init) Tag() string       { return TagInit }
func (Joined) Tag() string     { return TagJoined }
func (Left) Tag() string       { return TagLeft }
func (PlayerMove) Tag() string { return TagPlayerMove }
func (Kick) Tag() string       { return TagKick }
func (Move) Tag() string       { return TagMove }
func (KickInput) Tag() string  { return TagKick }

func (Init) outbound()       {}
func (Joined) outbound()     {}
func (Left) outbound()       {}
func (PlayerMove) outbound() {}
func (Kick) outbound()       {}

func (Move) inbound()      {}
func (KickInput) inbound() {}
