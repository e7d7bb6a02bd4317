package movelog

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/coder/quartz"
	"github.com/lox/chitgame/chit"
	"github.com/lox/chitgame/internal/fileutil"
	"github.com/lox/chitgame/internal/game"
	"github.com/rs/zerolog"
)

const (
	defaultFilename = "session.toml"
	lockSuffix      = ".lock"
)

// Recorder collects move logs for any number of rounds and appends finished
// rounds to a session file. It is safe for concurrent use; calls for a single
// round must arrive in play order. Recorders sharing a directory serialize
// their flushes through a lock file next to the session file.
type Recorder struct {
	cfg     Config
	logger  zerolog.Logger
	clock   quartz.Clock
	outPath string

	mu      sync.Mutex
	flushMu sync.Mutex
	rounds  map[string]*roundEntry
	buffer  []*RoundLog
}

type roundEntry struct {
	log   *RoundLog
	seats map[string]int
}

// NewRecorder prepares a recorder writing to cfg.Dir. Section numbering
// continues after the last section present in the session file at flush
// time.
func NewRecorder(cfg Config, logger zerolog.Logger) (*Recorder, error) {
	if cfg.Dir == "" {
		return nil, errors.New("movelog: Dir is required")
	}
	if cfg.Filename == "" {
		cfg.Filename = defaultFilename
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("movelog: create dir: %w", err)
	}

	return &Recorder{
		cfg:     cfg,
		logger:  logger,
		clock:   cfg.Clock,
		outPath: filepath.Join(cfg.Dir, cfg.Filename),
		rounds:  make(map[string]*roundEntry),
	}, nil
}

// Path returns the session file the recorder appends to.
func (r *Recorder) Path() string {
	return r.outPath
}

// Start begins a log for a freshly created round.
func (r *Recorder) Start(state *game.RoundState) {
	log, seats := newRoundLog(state)
	log.Dealt = make([]string, len(state.TurnOrder))
	for i, id := range state.TurnOrder {
		if p, ok := state.Players[id]; ok {
			log.Dealt[i] = chit.FormatCards(chit.SortCards(p.Cards))
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rounds[state.RoundID]; exists {
		r.logger.Warn().Str("round_id", state.RoundID).Msg("move log restarted for round")
	}
	r.rounds[state.RoundID] = &roundEntry{log: log, seats: seats}
}

// Record appends a successful pass and the automatic transfers it caused.
func (r *Recorder) Record(res *game.PassResult, sender string, card chit.CardType) {
	if res == nil || res.State == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.entryLocked(res.State)
	entry.log.Moves = append(entry.log.Moves, FormatMove(entry.seats, game.Transfer{
		Sender:   sender,
		Receiver: res.Receiver,
		Card:     card,
	}, false))
	for _, t := range res.AutoTransfers {
		entry.log.Moves = append(entry.log.Moves, FormatMove(entry.seats, t, true))
	}
}

// Finish closes the round's log with its final standings and buffers it for
// the next flush.
func (r *Recorder) Finish(state *game.RoundState, outcome game.Outcome) {
	r.mu.Lock()
	entry := r.entryLocked(state)
	delete(r.rounds, state.RoundID)

	log := entry.log
	log.FinishOrder = slices.Clone(state.FinishOrder)
	log.DrawPlayers = slices.Clone(state.DrawPlayers)
	log.FinishPositions = make([]int, len(state.TurnOrder))
	log.Scores = make([]int, len(state.TurnOrder))
	log.WinnerCards = make([]string, len(state.TurnOrder))
	for i, id := range state.TurnOrder {
		if p, ok := state.Players[id]; ok {
			log.FinishPositions[i] = p.FinishPosition
			log.Scores[i] = p.Score
		}
		if card, ok := state.WinnerCards[id]; ok {
			log.WinnerCards[i] = card.String()
		}
	}
	log.Outcome = string(outcome)
	log.Turns = state.TurnCounter
	log.Time = r.clock.Now().UTC()

	r.buffer = append(r.buffer, log)
	shouldFlush := r.cfg.FlushRounds > 0 && len(r.buffer) >= r.cfg.FlushRounds
	r.mu.Unlock()

	if shouldFlush {
		if err := r.Flush(); err != nil {
			r.logger.Error().Err(err).Str("path", r.outPath).Msg("move log flush failed")
		}
	}
}

// Pending returns the number of finished rounds waiting for a flush.
func (r *Recorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buffer)
}

// Flush appends all buffered rounds to the session file. Rounds that fail to
// write stay buffered.
func (r *Recorder) Flush() error {
	r.flushMu.Lock()
	defer r.flushMu.Unlock()

	r.mu.Lock()
	if len(r.buffer) == 0 {
		r.mu.Unlock()
		return nil
	}
	logs := slices.Clone(r.buffer)
	r.mu.Unlock()

	// Other recorders, possibly in other processes, may have appended since
	// this one last looked; number sections from the file under the lock.
	lock, err := fileutil.LockFile(r.outPath + lockSuffix)
	if err != nil {
		return err
	}
	defer lock.Unlock()
	base, err := readLastSection(r.outPath)
	if err != nil {
		return fmt.Errorf("movelog: read sections: %w", err)
	}

	var buf bytes.Buffer
	for i, log := range logs {
		// Blank line between sections, including after earlier flushes.
		if i > 0 || base > 0 {
			buf.WriteString("\n")
		}
		if err := EncodeSection(&buf, base+i+1, log); err != nil {
			return fmt.Errorf("movelog: encode round %s: %w", log.Round, err)
		}
	}
	if err := fileutil.AppendFile(r.outPath, buf.Bytes(), 0o644); err != nil {
		return err
	}

	r.mu.Lock()
	r.buffer = r.buffer[len(logs):]
	r.mu.Unlock()

	r.logger.Debug().Int("rounds", len(logs)).Str("path", r.outPath).Msg("move log flushed")
	return nil
}

// Close flushes buffered rounds. Rounds still in progress are dropped.
func (r *Recorder) Close() error {
	r.mu.Lock()
	open := len(r.rounds)
	r.rounds = make(map[string]*roundEntry)
	r.mu.Unlock()
	if open > 0 {
		r.logger.Warn().Int("rounds", open).Msg("discarding unfinished move logs")
	}
	return r.Flush()
}

// entryLocked returns the log for state's round, starting one without dealt
// hands if Start was never called.
func (r *Recorder) entryLocked(state *game.RoundState) *roundEntry {
	entry, ok := r.rounds[state.RoundID]
	if !ok {
		log, seats := newRoundLog(state)
		entry = &roundEntry{log: log, seats: seats}
		r.rounds[state.RoundID] = entry
	}
	return entry
}

func newRoundLog(state *game.RoundState) (*RoundLog, map[string]int) {
	log := &RoundLog{
		Round:   state.RoundID,
		Game:    state.GameID,
		Players: slices.Clone(state.TurnOrder),
		Seats:   make([]int, len(state.TurnOrder)),
		Moves:   []string{},
	}
	seats := make(map[string]int, len(state.TurnOrder))
	for i, id := range state.TurnOrder {
		if p, ok := state.Players[id]; ok {
			log.Seats[i] = p.SeatPosition
			seats[id] = p.SeatPosition
		}
	}
	return log, seats
}

// readLastSection returns the highest [round_N] header in path.
func readLastSection(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	last := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		name, ok := strings.CutPrefix(line, "["+sectionPrefix)
		if !ok {
			continue
		}
		name, ok = strings.CutSuffix(name, "]")
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(name); err == nil && n > last {
			last = n
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return last, nil
}

// ReadFile decodes the session file at path.
func ReadFile(path string) ([]RoundLog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("movelog: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}
