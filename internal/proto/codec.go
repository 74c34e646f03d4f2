package proto

import "fmt"

const (
	idFrameFields     = 1 // id
	motionFrameFields = 5 // id, x, y, a, b
	inputFrameFields  = 4 // x, y, a, b
)

// Encode serializes a server-to-client message as a positional array.
func Encode(m Outbound) ([]byte, error) {
	w := newWriter()
	switch m := m.(type) {
	case Init:
		w.header(TagInit, idFrameFields)
		w.id(m.ID)
	case Joined:
		w.header(TagJoined, idFrameFields)
		w.id(m.ID)
	case Left:
		w.header(TagLeft, idFrameFields)
		w.id(m.ID)
	case PlayerMove:
		w.header(TagPlayerMove, motionFrameFields)
		w.id(m.ID)
		w.floats(m.X, m.Y, m.VelX, m.VelY)
	case Kick:
		w.header(TagKick, motionFrameFields)
		w.id(m.ID)
		w.floats(m.X, m.Y, m.DirX, m.DirY)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupported, m)
	}
	return w.bytes()
}

// Decode parses a client-to-server frame. Only Move and Kick are accepted.
// On error the returned message is nil.
func Decode(b []byte) (Inbound, error) {
	r := newReader(b)
	tag, n, err := readHead(r)
	if err != nil {
		return nil, err
	}

	var msg Inbound
	switch tag {
	case TagMove:
		var m Move
		err = readFloats(r, tag, n, inputFrameFields,
			namedFloat{"x", &m.X}, namedFloat{"y", &m.Y},
			namedFloat{"vel_x", &m.VelX}, namedFloat{"vel_y", &m.VelY})
		msg = m
	case TagKick:
		var m KickInput
		err = readFloats(r, tag, n, inputFrameFields,
			namedFloat{"x", &m.X}, namedFloat{"y", &m.Y},
			namedFloat{"dir_x", &m.DirX}, namedFloat{"dir_y", &m.DirY})
		msg = m
	default:
		return nil, &DecodeError{Tag: tag, Err: ErrUnknownTag}
	}
	if err != nil {
		return nil, err
	}
	if err := r.end(); err != nil {
		return nil, &DecodeError{Tag: tag, Err: err}
	}
	return msg, nil
}

// EncodeInbound serializes a client-to-server message, as a peer would.
func EncodeInbound(m Inbound) ([]byte, error) {
	w := newWriter()
	switch m := m.(type) {
	case Move:
		w.header(TagMove, inputFrameFields)
		w.floats(m.X, m.Y, m.VelX, m.VelY)
	case KickInput:
		w.header(TagKick, inputFrameFields)
		w.floats(m.X, m.Y, m.DirX, m.DirY)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupported, m)
	}
	return w.bytes()
}

// DecodeOutbound parses a server-to-client frame, as a peer would.
func DecodeOutbound(b []byte) (Outbound, error) {
	r := newReader(b)
	tag, n, err := readHead(r)
	if err != nil {
		return nil, err
	}

	var msg Outbound
	switch tag {
	case TagInit, TagJoined, TagLeft:
		if n != idFrameFields {
			return nil, lengthError(tag, n, idFrameFields)
		}
		var id uint32
		if id, err = r.uint32(); err != nil {
			return nil, &DecodeError{Tag: tag, Field: "id", Err: err}
		}
		switch tag {
		case TagInit:
			msg = Init{ID: id}
		case TagJoined:
			msg = Joined{ID: id}
		default:
			msg = Left{ID: id}
		}
	case TagPlayerMove:
		var m PlayerMove
		if m.ID, err = readID(r, tag, n); err == nil {
			err = readFloats(r, tag, n-1, inputFrameFields,
				namedFloat{"x", &m.X}, namedFloat{"y", &m.Y},
				namedFloat{"vel_x", &m.VelX}, namedFloat{"vel_y", &m.VelY})
		}
		msg = m
	case TagKick:
		var m Kick
		if m.ID, err = readID(r, tag, n); err == nil {
			err = readFloats(r, tag, n-1, inputFrameFields,
				namedFloat{"x", &m.X}, namedFloat{"y", &m.Y},
				namedFloat{"dir_x", &m.DirX}, namedFloat{"dir_y", &m.DirY})
		}
		msg = m
	default:
		return nil, &DecodeError{Tag: tag, Err: ErrUnknownTag}
	}
	if err != nil {
		return nil, err
	}
	if err := r.end(); err != nil {
		return nil, &DecodeError{Tag: tag, Err: err}
	}
	return msg, nil
}

// readHead reads the array header and the tag. n is the number of fields
// after the tag.
func readHead(r *reader) (tag string, n int, err error) {
	size, err := r.arrayLen()
	if err != nil {
		return "", 0, &DecodeError{Err: err}
	}
	if size < 1 {
		return "", 0, &DecodeError{Err: fmt.Errorf("%w: empty sequence", ErrLengthMismatch)}
	}
	if tag, err = r.tag(); err != nil {
		return "", 0, &DecodeError{Field: "tag", Err: err}
	}
	return tag, size - 1, nil
}

func readID(r *reader, tag string, n int) (uint32, error) {
	if n != motionFrameFields {
		return 0, lengthError(tag, n, motionFrameFields)
	}
	id, err := r.uint32()
	if err != nil {
		return 0, &DecodeError{Tag: tag, Field: "id", Err: err}
	}
	return id, nil
}

type namedFloat struct {
	name string
	dst  *float64
}

func readFloats(r *reader, tag string, n, want int, fields ...namedFloat) error {
	if n != want {
		return lengthError(tag, n, want)
	}
	for _, f := range fields {
		v, err := r.float64()
		if err != nil {
			return &DecodeError{Tag: tag, Field: f.name, Err: err}
		}
		*f.dst = v
	}
	return nil
}

func lengthError(tag string, got, want int) error {
	return &DecodeError{Tag: tag, Err: fmt.Errorf("%w: got %d fields, want %d", ErrLengthMismatch, got, want)}
}
