package gfx

import (
	"strconv"
)

// Action is the parsed value of the 'a' key.
type Action byte

const (
	ActionNone        Action = 0
	ActionTransmit    Action = 't'
	ActionTransmitPut Action = 'T'
	ActionQuery       Action = 'q'
	ActionFrame       Action = 'f'
	ActionPut         Action = 'p'
	ActionDelete      Action = 'd'
	ActionAnimate     Action = 'a'
)

// Medium is the value of the 't' key for transmit actions.
type Medium byte

const (
	MediumDirect   Medium = 'd'
	MediumFile     Medium = 'f'
	MediumTempFile Medium = 't'
)

// Command is the fully-parsed, action-resolved representation of one
// protocol invocation. Only the fields relevant to Action are meaningful;
// the rest carry zero values.
type Command struct {
	Action Action

	ImageID     uint32 // i=
	ImageNumber uint32 // I=
	PlacementID uint32 // p=

	Quiet int // q=

	// transmit (t/T/q/f)
	Format      Format
	Compression Compression
	Medium      Medium
	ExpectedSize int64 // S=
	DataWidth, DataHeight int // s=,v= for transmit
	More bool // m=1

	// frame-append (f) / frame offset (also used by transmit for multi-frame)
	OffsetX, OffsetY         int // x=,y=
	BackgroundColor          uint32
	BackgroundFrameIndex     int // r= under f
	EditFrameIndex           int // c= under f (0 = new frame)
	GapMS                    int // z=
	Blend                    bool // !X=

	// put (p)
	Rows, Cols int // r=,c= under p
	SrcX, SrcY, SrcW, SrcH int // x=,y=,w=,h=
	DoNotMoveCursor        bool // C=
	Virtual                bool // U=
	ScaleMode              ScaleMode // derived, not a literal key

	// delete (d)
	DeleteSpec byte // d= value, e.g. 'a','A','i','I','n','N','p'...

	// animation (a)
	AnimState AnimationState // s= under a
	LoopCount int             // v= under a
	AnimCurrentFrame int      // c= under a
	AnimEditFrame    int      // r= under a

	Payload []byte

	// Diagnostics collects non-fatal parse issues (unknown keys, bad
	// numerics). When the command has no action, the dispatcher folds the
	// first one into an EINVAL reply; a command with an action is acted on
	// with whatever could be parsed and its diagnostics are not reported.
	Diagnostics []string
}

// parseCommand parses buf, which must already have the leading 'G' and
// trailing control sequence stripped (just "key=value,...[;payload]").
func parseCommand(buf []byte) *Command {
	raw := make(map[byte]string)
	cmd := &Command{}

	i := 0
	n := len(buf)
	// split keys from payload on the first unescaped ';'
	semi := -1
	for j := 0; j < n; j++ {
		if buf[j] == ';' {
			semi = j
			break
		}
	}
	keysPart := buf
	if semi >= 0 {
		keysPart = buf[:semi]
		cmd.Payload = buf[semi+1:]
	}

	for i < len(keysPart) {
		// key
		if keysPart[i] == ',' {
			i++
			continue
		}
		key := keysPart[i]
		i++
		if i >= len(keysPart) || keysPart[i] != '=' {
			cmd.Diagnostics = append(cmd.Diagnostics, "malformed key/value near '"+string(key)+"'")
			continue
		}
		i++
		start := i
		for i < len(keysPart) && keysPart[i] != ',' {
			i++
		}
		val := string(keysPart[start:i])
		raw[key] = val
	}

	// a/i/I resolved first: they disambiguate everything else and must
	// survive into error replies regardless of what comes after them.
	if v, ok := raw['a']; ok && len(v) > 0 {
		cmd.Action = Action(v[0])
	}
	if v, ok := raw['i']; ok {
		if n, err := parseUint32(v); err == nil {
			cmd.ImageID = n
		} else {
			cmd.Diagnostics = append(cmd.Diagnostics, "bad image id: "+v)
		}
	}
	if v, ok := raw['I']; ok {
		if n, err := parseUint32(v); err == nil {
			cmd.ImageNumber = n
		} else {
			cmd.Diagnostics = append(cmd.Diagnostics, "bad image number: "+v)
		}
	}
	if v, ok := raw['p']; ok {
		if n, err := parseUint32(v); err == nil {
			cmd.PlacementID = n
		} else {
			cmd.Diagnostics = append(cmd.Diagnostics, "bad placement id: "+v)
		}
	}
	if v, ok := raw['q']; ok {
		cmd.Quiet = parseIntDefault(v, 0, cmd)
	}
	if v, ok := raw['m']; ok {
		cmd.More = v == "1"
	}
	if v, ok := raw['U']; ok {
		cmd.Virtual = v == "1"
	}
	if v, ok := raw['C']; ok {
		cmd.DoNotMoveCursor = v == "1"
	}
	if v, ok := raw['X']; ok {
		cmd.Blend = v != "1" // X=1 means replace-instead-of-blend
	} else {
		cmd.Blend = true
	}
	if v, ok := raw['Y']; ok {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cmd.BackgroundColor = uint32(n)
		} else {
			cmd.Diagnostics = append(cmd.Diagnostics, "bad background color: "+v)
		}
	}
	if v, ok := raw['z']; ok {
		cmd.GapMS = parseIntDefault(v, 0, cmd)
	}
	if v, ok := raw['x']; ok {
		cmd.OffsetX = parseIntDefault(v, 0, cmd)
		cmd.SrcX = cmd.OffsetX
	}
	if v, ok := raw['y']; ok {
		cmd.OffsetY = parseIntDefault(v, 0, cmd)
		cmd.SrcY = cmd.OffsetY
	}
	if v, ok := raw['w']; ok {
		cmd.SrcW = parseIntDefault(v, 0, cmd)
	}
	if v, ok := raw['h']; ok {
		cmd.SrcH = parseIntDefault(v, 0, cmd)
	}
	if v, ok := raw['f']; ok {
		cmd.Format = Format(parseIntDefault(v, 0, cmd))
	}
	if v, ok := raw['o']; ok && v == "z" {
		cmd.Compression = CompressionZlib
	}
	if v, ok := raw['t']; ok && len(v) > 0 {
		cmd.Medium = Medium(v[0])
	} else {
		cmd.Medium = MediumDirect
	}
	if v, ok := raw['S']; ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cmd.ExpectedSize = n
		} else {
			cmd.Diagnostics = append(cmd.Diagnostics, "bad expected size: "+v)
		}
	}
	if v, ok := raw['d']; ok && len(v) > 0 {
		cmd.DeleteSpec = v[0]
	}

	// action-dependent reinterpretation of s,v,c,r
	switch cmd.Action {
	case ActionTransmit, ActionTransmitPut, ActionQuery, ActionFrame:
		if v, ok := raw['s']; ok {
			cmd.DataWidth = parseIntDefault(v, 0, cmd)
		}
		if v, ok := raw['v']; ok {
			cmd.DataHeight = parseIntDefault(v, 0, cmd)
		}
		if cmd.Action == ActionFrame {
			if v, ok := raw['r']; ok {
				cmd.BackgroundFrameIndex = parseIntDefault(v, 0, cmd)
			}
			if v, ok := raw['c']; ok {
				cmd.EditFrameIndex = parseIntDefault(v, 0, cmd)
			}
		}
	case ActionPut:
		if v, ok := raw['r']; ok {
			cmd.Rows = parseIntDefault(v, 0, cmd)
		}
		if v, ok := raw['c']; ok {
			cmd.Cols = parseIntDefault(v, 0, cmd)
		}
		cmd.ScaleMode = resolveScaleMode(cmd.Rows, cmd.Cols)
	case ActionAnimate:
		if v, ok := raw['s']; ok {
			cmd.AnimState = AnimationState(parseIntDefault(v, 0, cmd))
		}
		if v, ok := raw['v']; ok {
			cmd.LoopCount = parseIntDefault(v, 0, cmd)
		}
		if v, ok := raw['c']; ok {
			cmd.AnimCurrentFrame = parseIntDefault(v, 0, cmd)
		}
		if v, ok := raw['r']; ok {
			cmd.AnimEditFrame = parseIntDefault(v, 0, cmd)
		}
	}

	for k := range raw {
		if !knownKey(k) {
			cmd.Diagnostics = append(cmd.Diagnostics, "unknown key: "+string(k))
		}
	}

	return cmd
}

// resolveScaleMode derives a scale mode from which of rows/cols the client
// supplied, since the protocol subset in scope carries no explicit scale
// mode key: neither given means render at natural size (none), both given
// means the client fully controls the box (fill), and exactly one given
// means fit the other by aspect ratio (contain).
func resolveScaleMode(rows, cols int) ScaleMode {
	switch {
	case rows == 0 && cols == 0:
		return ScaleNone
	case rows != 0 && cols != 0:
		return ScaleFill
	default:
		return ScaleContain
	}
}

func knownKey(k byte) bool {
	switch k {
	case 'a', 'i', 'I', 'p', 'q', 'm', 'U', 'C', 'X', 'Y', 'z', 'x', 'y', 'w', 'h',
		'f', 'o', 't', 'S', 'd', 's', 'v', 'r', 'c':
		return true
	}
	return false
}

func parseUint32(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

func parseIntDefault(s string, def int, cmd *Command) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		cmd.Diagnostics = append(cmd.Diagnostics, "bad integer value: "+s)
		return def
	}
	return n
}
