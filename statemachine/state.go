package statemachine

import (
	"encoding/binary"
	"math/bits"

	"ggp/gdl"
	"ggp/propnet"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/exp/slices"
)

type StateHash uint64

// State holds one bit per base proposition, in the order of the net's Bases.
type State struct {
	net  *propnet.PropNet
	bits []uint64
}

func newState(net *propnet.PropNet) State {
	return State{net: net, bits: make([]uint64, (len(net.Bases())+63)/64)}
}

// Has reports whether the i-th base proposition is true.
func (s State) Has(i int) bool {
	return s.bits[i/64]&(1<<(i%64)) != 0
}

// Holds reports whether base is true. Any other proposition is false.
func (s State) Holds(base propnet.ID) bool {
	i := s.net.BaseIndex(base)
	return i >= 0 && s.Has(i)
}

func (s State) set(i int, v bool) {
	if v {
		s.bits[i/64] |= 1 << (i % 64)
	} else {
		s.bits[i/64] &^= 1 << (i % 64)
	}
}

// Len is the number of true base propositions.
func (s State) Len() int {
	n := 0
	for _, w := range s.bits {
		n += bits.OnesCount64(w)
	}
	return n
}

func (s State) Clone() State {
	return State{net: s.net, bits: slices.Clone(s.bits)}
}

func (s State) Equal(o State) bool {
	return slices.Equal(s.bits, o.bits)
}

// Key is a compact string identity for maps.
func (s State) Key() string {
	return string(s.bytes())
}

func (s State) Hash() StateHash {
	return StateHash(xxhash.Sum64(s.bytes()))
}

func (s State) bytes() []byte {
	buf := make([]byte, 0, 8*len(s.bits))
	for _, w := range s.bits {
		buf = binary.LittleEndian.AppendUint64(buf, w)
	}
	return buf
}

// Sentences returns the true base propositions as (true ...) sentences.
func (s State) Sentences() []gdl.Sentence {
	var out []gdl.Sentence
	for i, id := range s.net.Bases() {
		if s.Has(i) {
			out = append(out, s.net.Component(id).Name)
		}
	}
	return out
}

func (s State) String() string {
	text := "{"
	for i, sentence := range s.Sentences() {
		if i > 0 {
			text += " "
		}
		text += sentence.Unwrap().String()
	}
	return text + "}"
}
