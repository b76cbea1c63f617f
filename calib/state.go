package calib

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/antoinelb/hydro/metrics"
)

// snapshot is the gob image of a run; cached simulation series are dropped to
// keep snapshots small and are rebuilt on demand after loading.
type snapshot struct {
	Cfg      Config
	Pop      []snapPoint
	Criteria []float64
	NEval    int
	Loop     int
	State    State
}

type snapPoint struct {
	U     []float64
	Score float64
	Res   metrics.Result
}

// SaveGob writes the run's state so it can be resumed or reported later. Only
// registry-built runs (New, not NewWithModel) can be restored.
func (s *SCE) SaveGob(fp string) error {
	if s.state == Created {
		return fmt.Errorf(" calib.SaveGob: nothing to save before Init")
	}
	snap := snapshot{
		Cfg:      s.cfg,
		Pop:      make([]snapPoint, len(s.pop)),
		Criteria: append([]float64{}, s.criteria...),
		NEval:    s.nEval,
		Loop:     s.loop,
		State:    s.state,
	}
	for i, pt := range s.pop {
		snap.Pop[i] = snapPoint{U: pt.u, Score: pt.score, Res: pt.res}
	}

	f, err := os.Create(fp)
	if err != nil {
		return fmt.Errorf(" calib.SaveGob: %v", err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(snap); err != nil {
		return fmt.Errorf(" calib.SaveGob: %v", err)
	}
	return nil
}

// LoadGob restores a saved run. The generator is reseeded from the snapshot's
// evaluation count: a reloaded run is itself deterministic, though its draws
// differ from the uninterrupted original.
func LoadGob(fp string) (*SCE, error) {
	f, err := os.Open(fp)
	if err != nil {
		return nil, fmt.Errorf(" calib.LoadGob: %v", err)
	}
	defer f.Close()
	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf(" calib.LoadGob: %v", err)
	}

	s, err := New(snap.Cfg)
	if err != nil {
		return nil, fmt.Errorf(" calib.LoadGob: %v", err)
	}
	s.pop = make([]*point, len(snap.Pop))
	for i, pt := range snap.Pop {
		s.pop[i] = &point{u: pt.U, score: pt.Score, res: pt.Res}
	}
	s.criteria = snap.Criteria
	s.nEval = snap.NEval
	s.loop = snap.Loop
	s.state = snap.State
	s.rng.Seed(snap.Cfg.Seed + int64(snap.NEval))
	return s, nil
}
