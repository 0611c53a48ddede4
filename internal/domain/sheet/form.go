package sheet

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/okian/rbd-scoreboard/internal/domain/scoring"
)

// FormValue is a raw form field. It accepts JSON strings, numbers and null,
// so clients can post either what the input box holds or a parsed number.
type FormValue string

// UnmarshalJSON implements json.Unmarshaler.
func (v *FormValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*v = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = FormValue(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		// 1e2 and 1.5e1 are numbers too; keep the integer part, not the literal.
		f, err := n.Float64()
		if err != nil {
			return err
		}
		f = math.Max(math.Min(math.Trunc(f), math.MaxInt32), math.MinInt32)
		*v = FormValue(strconv.Itoa(int(f)))
		return nil
	}
}

// Int returns the value as a form integer.
func (v FormValue) Int() int {
	return scoring.CoerceInt(string(v))
}

// PlayerInput is one posted row of the scoring table.
type PlayerInput struct {
	Role   string    `json:"role" validate:"max=40,display_text"`
	Level1 FormValue `json:"level1" validate:"max=12"`
	Level2 FormValue `json:"level2" validate:"max=12"`
	Level3 FormValue `json:"level3" validate:"max=12"`
}

// Form is the complete state of a score sheet as posted by a client.
type Form struct {
	Hazards     []FormValue   `json:"hazards" validate:"max=16,dive,max=12"`
	Players     []PlayerInput `json:"players" validate:"max=12,dive"`
	Goals       []bool        `json:"goals" validate:"max=16"`
	OptIn       bool          `json:"opt_in"`
	DisplayName string        `json:"display_name" validate:"max=64,display_text"`
}

// NumberForm is a convenience for building forms from integers.
func NumberForm(hazards []int, players [][3]int, roles []string, goals []bool) Form {
	f := Form{Goals: goals}
	for _, h := range hazards {
		f.Hazards = append(f.Hazards, FormValue(strconv.Itoa(h)))
	}
	for i, p := range players {
		in := PlayerInput{
			Level1: FormValue(strconv.Itoa(p[0])),
			Level2: FormValue(strconv.Itoa(p[1])),
			Level3: FormValue(strconv.Itoa(p[2])),
		}
		if i < len(roles) {
			in.Role = roles[i]
		}
		f.Players = append(f.Players, in)
	}
	return f
}
