package tapesort

import "errors"

// side names one tape of a scratchPair.
type side int

const (
	sideEven side = iota
	sideOdd
)

func (s side) other() side {
	return 1 - s
}

func (s side) String() string {
	if s == sideEven {
		return "even"
	}
	return "odd"
}

// scratchPair holds runs interleaved across two temporaries: runs 0, 2, 4...
// on even, runs 1, 3, 5... on odd, each chunkLen cells long except possibly
// the last. last records which side received the most recent run, which is
// where the single full run lives once chunkLen >= total.
type scratchPair struct {
	even     Tape
	odd      Tape
	chunkLen int
	total    int
	last     side
}

// newScratchPair creates two zero-filled temporaries of total cells from owner.
func newScratchPair(owner Tape, total, bufferBytes, chunkLen int) (*scratchPair, error) {
	even, err := owner.CreateTemporary(total, bufferBytes)
	if err != nil {
		return nil, err
	}
	odd, err := owner.CreateTemporary(total, bufferBytes)
	if err != nil {
		return nil, errors.Join(err, even.Close())
	}
	return &scratchPair{
		even:     even,
		odd:      odd,
		chunkLen: chunkLen,
		total:    total,
	}, nil
}

func (p *scratchPair) tape(s side) Tape {
	if s == sideEven {
		return p.even
	}
	return p.odd
}

func (p *scratchPair) reset() {
	p.even.Reset()
	p.odd.Reset()
}

func (p *scratchPair) setMemoryLimit(bytes int) error {
	return errors.Join(p.even.SetMemoryLimit(bytes), p.odd.SetMemoryLimit(bytes))
}

// close releases both temporaries. Safe on a nil pair.
func (p *scratchPair) close() error {
	if p == nil {
		return nil
	}
	return errors.Join(p.even.Close(), p.odd.Close())
}
