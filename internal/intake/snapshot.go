package intake

import (
	"fmt"
	"strings"
	"time"

	"github.com/spigell/screener/internal/validate"
)

// Snapshot is the plain data form of a session, suitable for JSON.
type Snapshot struct {
	ID        string                    `json:"id"`
	StartedAt time.Time                 `json:"started_at"`
	Stage     Stage                     `json:"stage"`
	Candidate map[validate.Field]string `json:"candidate"`
	Loop      Loop                      `json:"loop"`
	Log       []Entry                   `json:"log"`
}

// Snapshot copies the session state.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ID:        s.id,
		StartedAt: s.startedAt,
		Stage:     s.stage,
		Candidate: s.Candidate(),
		Loop:      s.Loop(),
		Log:       s.Log(),
	}
}

// Restore rebuilds a session from a snapshot. Snapshots that break the
// session invariants are refused.
func Restore(snap Snapshot, cfg Config) (*Session, error) {
	if snap.Stage.index() < 0 {
		return nil, fmt.Errorf("unknown stage %q", snap.Stage)
	}

	known := make(map[validate.Field]bool, len(validate.Fields))
	for _, f := range validate.Fields {
		known[f] = true
	}
	for f := range snap.Candidate {
		if !known[f] {
			return nil, fmt.Errorf("unknown candidate field %q", f)
		}
	}

	for i := 1; i < len(snap.Log); i++ {
		if !snap.Log[i].Timestamp.After(snap.Log[i-1].Timestamp) {
			return nil, fmt.Errorf("log entry %d is not after entry %d", i, i-1)
		}
	}

	if err := checkProgress(snap); err != nil {
		return nil, err
	}

	s := New(cfg)
	if snap.ID != "" {
		s.id = snap.ID
	}
	if !snap.StartedAt.IsZero() {
		s.startedAt = snap.StartedAt
	}
	s.stage = snap.Stage
	for f, v := range snap.Candidate {
		s.candidate[f] = v
	}
	s.loop = snap.Loop.clone()
	s.log.entries = append([]Entry(nil), snap.Log...)

	return s, nil
}

// checkProgress verifies that the candidate record and the question loop
// match how far the snapshot got. An ended session may have stopped anywhere.
func checkProgress(snap Snapshot) error {
	if snap.Stage == StageEnded {
		return nil
	}

	current := snap.Stage.index()
	for _, st := range Sequence {
		field, ok := st.Field()
		if !ok {
			continue
		}
		done := st.index() < current
		filled := strings.TrimSpace(snap.Candidate[field]) != ""
		switch {
		case done && !filled:
			return fmt.Errorf("stage %s is past %s but %s is missing", snap.Stage, st, field)
		case !done && filled:
			return fmt.Errorf("stage %s has not collected %s yet", snap.Stage, field)
		}
	}

	loop := snap.Loop
	switch snap.Stage {
	case StageTechnicalQuestions:
		if loop.Target < 1 {
			return fmt.Errorf("question loop has no target")
		}
		if loop.Asked() >= loop.Target {
			return fmt.Errorf("question loop has %d answers for %d questions and is still asking", loop.Asked(), loop.Target)
		}
	case StageConclusion:
		if loop.Target < 1 || loop.Asked() != loop.Target {
			return fmt.Errorf("question loop has %d answers for %d questions at conclusion", loop.Asked(), loop.Target)
		}
	default:
		if loop.Target != 0 || loop.Asked() != 0 || loop.Pending != "" {
			return fmt.Errorf("stage %s has question loop state", snap.Stage)
		}
	}

	return nil
}
