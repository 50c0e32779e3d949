package solver

import (
	"time"

	"github.com/rs/zerolog"

	"tsume/pkg/shogi"
)

const (
	inf = uint32(1) << 30

	maxVerifyRounds = 64
	maxPVLength     = 1024
)

// Outcome tells how a search ended.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeProved
	// OutcomeDisproved means no mate exists at any depth.
	OutcomeDisproved
	// OutcomeDepthLimit means no mate was found within the depth limit or
	// without repeating a position.
	OutcomeDepthLimit
	OutcomeNodeLimit
	// OutcomeVerifyFailed means strict verification kept rejecting proofs.
	OutcomeVerifyFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeProved:
		return "proved"
	case OutcomeDisproved:
		return "disproved"
	case OutcomeDepthLimit:
		return "depth_limit"
	case OutcomeNodeLimit:
		return "node_limit"
	case OutcomeVerifyFailed:
		return "verify_failed"
	default:
		return "unknown"
	}
}

// Result is the full report of one DFPN search.
type Result struct {
	Move    shogi.Move
	PV      []shogi.Move
	Outcome Outcome
	Nodes   uint64
	Elapsed time.Duration
}

// DFPNConfig configures a DFPN solver. MemoryMB bounds the transposition
// table (16 MB when zero). The zero Logger discards everything.
type DFPNConfig struct {
	MemoryMB int
	Logger   zerolog.Logger
}

// DFPN is a depth-first proof-number search for checkmates. The side to
// move at the root is the attacker; proof and disproof numbers are always
// from the attacker's point of view. A DFPN is not safe for concurrent use.
type DFPN struct {
	table *table
	log   zerolog.Logger
	nodes uint64

	st       *shogi.State
	attacker shogi.Color
	limit    uint64
	maxDepth uint64
	aborted  bool
}

// nodeResult is the value of a searched node. local marks a disproof that
// depends on the current path and must never be stored; limited marks a
// disproof caused by the depth limit.
type nodeResult struct {
	pn, dn  uint32
	dist    uint16
	best    shogi.Move
	local   bool
	limited bool
}

type child struct {
	move    shogi.Move
	pn, dn  uint32
	dist    uint16
	local   bool
	limited bool
}

func (c *child) set(r nodeResult) {
	c.pn, c.dn, c.dist, c.local, c.limited = r.pn, r.dn, r.dist, r.local, r.limited
}

// rank orders disproofs by how reusable they are.
func (c *child) rank() int {
	switch {
	case c.local:
		return 2
	case c.limited:
		return 1
	default:
		return 0
	}
}

func NewDFPN(cfg DFPNConfig) *DFPN {
	t := newTable(cfg.MemoryMB)
	cfg.Logger.Debug().
		Int("entries", t.capacity()).
		Int("bytes", t.bytes()).
		Msg("dfpn table allocated")
	return &DFPN{table: t, log: cfg.Logger}
}

// Solve returns the first move of a forced mate for the side to move, or
// MoveNone when the search disproves it or runs out of budget. maxNodes and
// maxDepth of zero mean unlimited. The state is restored before returning.
func (d *DFPN) Solve(st *shogi.State, maxNodes, maxDepth uint64, strict bool) shogi.Move {
	return d.Search(st, maxNodes, maxDepth, strict, false).Move
}

// SolveWithPV is Solve returning the whole mating line: the attacker's
// proving moves and the defender's longest resistance. It is empty when no
// mate is proved.
func (d *DFPN) SolveWithPV(st *shogi.State, maxNodes, maxDepth uint64, strict bool) []shogi.Move {
	return d.Search(st, maxNodes, maxDepth, strict, true).PV
}

// SearchedNodeCount is the number of nodes visited by the last search.
func (d *DFPN) SearchedNodeCount() uint64 {
	return d.nodes
}

// Search runs one solve and reports how it ended.
func (d *DFPN) Search(st *shogi.State, maxNodes, maxDepth uint64, strict, withPV bool) Result {
	start := time.Now()
	d.table.clear()
	d.nodes = 0
	d.st = st
	d.attacker = st.SideToMove()
	d.limit = maxNodes
	d.maxDepth = maxDepth
	d.aborted = false
	defer func() { d.st = nil }()

	r, outcome := d.prove(strict)
	res := Result{Outcome: outcome}
	if outcome == OutcomeProved {
		res.Move = r.best
		if withPV {
			if maxNodes > 0 {
				d.limit = d.nodes + maxNodes
			}
			res.PV = d.principalVariation()
		}
	}
	res.Nodes = d.nodes
	res.Elapsed = time.Since(start)

	d.log.Debug().
		Str("outcome", outcome.String()).
		Str("move", res.Move.USI()).
		Uint64("nodes", res.Nodes).
		Int("tt_used", d.table.used()).
		Dur("elapsed", res.Elapsed).
		Msg("dfpn search finished")
	return res
}

func (d *DFPN) prove(strict bool) (nodeResult, Outcome) {
	for round := 0; ; round++ {
		r := d.mid(inf, inf, 0)
		switch {
		case d.aborted:
			return r, OutcomeNodeLimit
		case r.dn == 0 && (r.local || r.limited):
			return r, OutcomeDepthLimit
		case r.dn == 0:
			return r, OutcomeDisproved
		case r.pn != 0:
			return r, OutcomeUnknown
		}
		if !strict {
			return r, OutcomeProved
		}
		var path []uint64
		if d.verify(0, &path) {
			return r, OutcomeProved
		}
		if d.aborted {
			return r, OutcomeNodeLimit
		}
		for _, key := range path {
			d.table.remove(key)
		}
		if round+1 >= maxVerifyRounds {
			return r, OutcomeVerifyFailed
		}
		d.log.Debug().Int("round", round).Int("path", len(path)).Msg("proof tree rejected")
	}
}

func (d *DFPN) atDepthLimit(ply int) bool {
	return d.maxDepth > 0 && uint64(ply) >= d.maxDepth
}

// lookup returns the stored entry for key if it may be used at ply.
func (d *DFPN) lookup(key uint64, ply int) *entry {
	e := d.table.lookup(key)
	if e == nil {
		return nil
	}
	if e.pn == 0 && d.maxDepth > 0 && uint64(ply)+uint64(e.dist) > d.maxDepth {
		return nil
	}
	if e.dn == 0 && e.limited && ply < int(e.ply) {
		return nil
	}
	return e
}

func (d *DFPN) save(key uint64, ply int, r nodeResult, start uint64) {
	if r.dn == 0 && r.local {
		return
	}
	work := d.nodes - start + 1
	if work > uint64(^uint32(0)) {
		work = uint64(^uint32(0))
	}
	d.table.store(entry{
		key:     key,
		pn:      r.pn,
		dn:      r.dn,
		best:    r.best,
		amount:  uint32(work),
		dist:    r.dist,
		ply:     uint16(ply),
		limited: r.dn == 0 && r.limited,
	})
}

// repeats reports whether the current position is a repetition that cannot
// help the attacker.
func (d *DFPN) repeats() bool {
	attackerToMove := d.st.SideToMove() == d.attacker
	switch d.st.RepetitionStatus(false) {
	case shogi.Repetition, shogi.WinRepetition, shogi.LossRepetition:
		return true
	case shogi.SuperiorRepetition:
		return !attackerToMove
	case shogi.InferiorRepetition:
		return attackerToMove
	}
	return false
}

// expand evaluates the children of the current node from the table.
func (d *DFPN) expand(moves []shogi.Move, ply int) []child {
	children := make([]child, len(moves))
	for i, m := range moves {
		c := &children[i]
		c.move = m
		d.st.DoMove(m)
		if d.repeats() {
			c.pn, c.dn, c.local = inf, 0, true
		} else if e := d.lookup(d.st.Hash(), ply); e != nil {
			c.pn, c.dn, c.dist, c.limited = e.pn, e.dn, e.dist, e.limited
		} else {
			c.pn, c.dn = 1, 1
		}
		d.st.UndoMove()
	}
	return children
}

func (d *DFPN) mid(thpn, thdn uint32, ply int) nodeResult {
	if d.limit > 0 && d.nodes >= d.limit {
		d.aborted = true
		return nodeResult{pn: 1, dn: 1}
	}
	d.nodes++
	if d.st.SideToMove() == d.attacker {
		return d.orNode(thpn, thdn, ply)
	}
	return d.andNode(thpn, thdn, ply)
}

func (d *DFPN) orNode(thpn, thdn uint32, ply int) nodeResult {
	if d.atDepthLimit(ply) {
		return nodeResult{pn: inf, limited: true}
	}
	key := d.st.Hash()
	start := d.nodes
	if m := Mate1Ply(d.st); !m.IsNone() {
		r := nodeResult{dn: inf, dist: 1, best: m}
		d.save(key, ply, r, start)
		return r
	}

	children := d.expand(d.st.CheckMoves(attackerWily(d.st)), ply+1)
	var r nodeResult
	for {
		var next int
		var pn2 uint32
		r, next, pn2 = orResult(children)
		if d.aborted || r.pn >= thpn || r.dn >= thdn {
			break
		}
		c := &children[next]
		d.st.DoMove(c.move)
		cr := d.mid(min(thpn, addSat(pn2, 1)), childThreshold(thdn, r.dn, c.dn), ply+1)
		d.st.UndoMove()
		c.set(cr)
	}
	if !d.aborted {
		d.save(key, ply, r, start)
	}
	return r
}

func (d *DFPN) andNode(thpn, thdn uint32, ply int) nodeResult {
	key := d.st.Hash()
	start := d.nodes
	moves := d.st.LegalMoves(true)
	if len(moves) == 0 {
		if isPawnDrop(d.st) {
			// Lost by the move played, not by the position.
			return nodeResult{pn: inf, local: true}
		}
		r := nodeResult{dn: inf}
		d.save(key, ply, r, start)
		return r
	}
	if d.atDepthLimit(ply) {
		return nodeResult{pn: inf, limited: true}
	}

	children := d.expand(moves, ply+1)
	var r nodeResult
	for {
		var next int
		var dn2 uint32
		r, next, dn2 = andResult(children)
		if d.aborted || r.pn >= thpn || r.dn >= thdn {
			break
		}
		c := &children[next]
		d.st.DoMove(c.move)
		cr := d.mid(childThreshold(thpn, r.pn, c.pn), min(thdn, addSat(dn2, 1)), ply+1)
		d.st.UndoMove()
		c.set(cr)
	}
	if !d.aborted {
		d.save(key, ply, r, start)
	}
	return r
}

// orResult folds the children of an OR node: minimum proof number, summed
// disproof number. It also returns the child to search next and the
// second-smallest proof number.
func orResult(children []child) (r nodeResult, next int, pn2 uint32) {
	r.pn, pn2, next = inf, inf, -1
	for i := range children {
		c := &children[i]
		r.dn = addSat(r.dn, c.dn)
		if next < 0 {
			next = i
			continue
		}
		b := &children[next]
		if c.pn < b.pn || (c.pn == 0 && b.pn == 0 && c.dist < b.dist) {
			pn2 = min(pn2, b.pn)
			next = i
		} else {
			pn2 = min(pn2, c.pn)
		}
	}
	if next < 0 {
		return r, 0, pn2
	}
	b := &children[next]
	r.pn = b.pn
	if r.pn == 0 {
		r.dist = b.dist + 1
		r.best = b.move
	}
	if r.dn == 0 {
		for i := range children {
			r.local = r.local || children[i].local
			r.limited = r.limited || children[i].limited
		}
		r.limited = r.limited && !r.local
	}
	return r, next, pn2
}

// andResult folds the children of an AND node: summed proof number,
// minimum disproof number. A proved AND node plays its longest defence.
func andResult(children []child) (r nodeResult, next int, dn2 uint32) {
	r.dn, dn2, next = inf, inf, -1
	longest := -1
	for i := range children {
		c := &children[i]
		r.pn = addSat(r.pn, c.pn)
		if c.pn == 0 && (longest < 0 || c.dist > children[longest].dist) {
			longest = i
		}
		if next < 0 {
			next = i
			continue
		}
		b := &children[next]
		if c.dn < b.dn || (c.dn == 0 && b.dn == 0 && c.rank() < b.rank()) {
			dn2 = min(dn2, b.dn)
			next = i
		} else {
			dn2 = min(dn2, c.dn)
		}
	}
	if next < 0 {
		r.pn = 0
		return r, 0, dn2
	}
	b := &children[next]
	r.dn = b.dn
	if r.pn == 0 && longest >= 0 {
		r.dist = children[longest].dist + 1
		r.best = children[longest].move
	}
	if r.dn == 0 {
		r.local, r.limited = b.local, b.limited
	}
	return r, next, dn2
}

// addSat adds proof numbers. inf is absorbing; a finite sum stays below
// inf so that an unresolved node is never mistaken for a resolved one.
func addSat(a, b uint32) uint32 {
	if a >= inf || b >= inf {
		return inf
	}
	if s := a + b; s < inf {
		return s
	}
	return inf - 1
}

// childThreshold gives a child the part of the parent's threshold not
// already used by its siblings.
func childThreshold(th, total, own uint32) uint32 {
	if th >= inf {
		return inf
	}
	return th - (total - own)
}
