package main

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/cwbudde/algo-resonant/resonant"
)

const (
	positionKeys = "asdfghjkl"
	tensionStep  = 5
	couplingStep = 0.05
)

const help = `keys: 1-8 strike | space random strike | b bow all | n breath
      t topology | m material | asdfghjkl stiffness axis | ASDFGHJKL damping axis
      +/- tension | [/] coupling | r reset | ? help | q quit`

// session maps key presses onto controller commands.
type session struct {
	ctrl    *resonant.Controller
	size    int
	rnd     *rand.Rand
	stagger func(i int)

	topology  int
	material  int
	materials []string
	position  [3]float64
	tension   float32
	coupling  float32
}

func newSession(ctrl *resonant.Controller, params *resonant.Params, seed int64, stagger func(i int)) *session {
	s := &session{
		ctrl:      ctrl,
		size:      params.Resonators,
		rnd:       rand.New(rand.NewSource(seed)),
		stagger:   stagger,
		materials: resonant.MaterialNames(),
		position:  params.MaterialPosition,
		tension:   params.Tension,
		coupling:  params.CouplingStrength,
	}
	for i, t := range resonant.Topologies() {
		if t == params.Topology {
			s.topology = i
		}
	}
	return s
}

func sent(ok bool, msg string) string {
	if !ok {
		return "queue full, dropped: " + msg
	}
	return msg
}

// handleKey applies key b and returns a status line. quit is set for q and Ctrl-C.
func (s *session) handleKey(b byte) (msg string, quit bool) {
	switch {
	case b == 'q' || b == 0x03:
		return "bye", true
	case b >= '1' && b <= '8':
		i := int(b - '1')
		if i >= s.size {
			return fmt.Sprintf("no resonator %d", i+1), false
		}
		return sent(s.ctrl.Strike(i), fmt.Sprintf("strike %d", i+1)), false
	case b == ' ':
		i, ok := s.ctrl.RandomStrike(s.size, s.rnd)
		return sent(ok, fmt.Sprintf("strike %d", i+1)), false
	case b == 'b':
		// Each bow goroutine owns its source; s.rnd stays on the key goroutine.
		rnd := rand.New(rand.NewSource(s.rnd.Int63()))
		go s.ctrl.BowAll(s.size, rnd, s.stagger)
		return "bow all", false
	case b == 'n':
		i := s.rnd.Intn(s.size)
		return sent(s.ctrl.Excite(i, resonant.DefaultExcitation(resonant.ExcitationBreath)), fmt.Sprintf("breath %d", i+1)), false
	case b == 't':
		all := resonant.Topologies()
		s.topology = (s.topology + 1) % len(all)
		return sent(s.ctrl.SetTopology(all[s.topology]), "topology "+string(all[s.topology])), false
	case b == 'm':
		s.material = (s.material + 1) % len(s.materials)
		name := s.materials[s.material]
		m, _ := resonant.MaterialPreset(name)
		return sent(s.ctrl.SetMaterial(m), "material "+name), false
	case strings.IndexByte(positionKeys, b) >= 0:
		s.position[0] = keyPosition(strings.IndexByte(positionKeys, b))
		return s.sendPosition(), false
	case strings.IndexByte(strings.ToUpper(positionKeys), b) >= 0:
		s.position[1] = keyPosition(strings.IndexByte(strings.ToUpper(positionKeys), b))
		return s.sendPosition(), false
	case b == '+' || b == '=':
		s.tension += tensionStep
		return sent(s.ctrl.SetTension(s.tension), fmt.Sprintf("tension %.0f", s.tension)), false
	case b == '-':
		s.tension -= tensionStep
		return sent(s.ctrl.SetTension(s.tension), fmt.Sprintf("tension %.0f", s.tension)), false
	case b == ']':
		s.coupling += couplingStep
		return sent(s.ctrl.SetCouplingStrength(s.coupling), fmt.Sprintf("coupling %.2f", s.coupling)), false
	case b == '[':
		s.coupling = max(s.coupling-couplingStep, 0)
		return sent(s.ctrl.SetCouplingStrength(s.coupling), fmt.Sprintf("coupling %.2f", s.coupling)), false
	case b == 'r':
		return sent(s.ctrl.Reset(), "reset"), false
	case b == '?':
		return help, false
	}
	return "", false
}

// keyPosition maps a key index on the home row onto [0, 1].
func keyPosition(i int) float64 {
	return resonant.MapRange(float64(i), 0, float64(len(positionKeys)-1), 0, 1)
}

func (s *session) sendPosition() string {
	p := s.position
	return sent(s.ctrl.SetMaterialPosition(p[0], p[1], p[2]), fmt.Sprintf("material position %.2f %.2f %.2f", p[0], p[1], p[2]))
}
