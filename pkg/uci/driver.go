// Package uci contains a driver for an external chess engine speaking the UCI
// protocol as a child process.
//
// See: http://wbec-ridderkerk.nl/html/UCIProtocol.html
// See: https://en.wikipedia.org/wiki/Universal_Chess_Interface
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/herohde/gambit/pkg/board"
	"github.com/herohde/gambit/pkg/board/fen"
	"github.com/herohde/gambit/pkg/game"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"
	"github.com/seekerror/stdlib/pkg/util/iox"
	"go.uber.org/atomic"
)

var (
	// ErrEngineNotFound is returned when the engine executable does not exist.
	ErrEngineNotFound = errors.New("engine not found")
	// ErrBadState is returned when a command is issued in an incompatible state.
	ErrBadState = errors.New("bad state")
	// ErrProcessExited is returned on pending commands when the engine dies.
	ErrProcessExited = errors.New("engine process exited")
)

// quitTimeout bounds how long Quit waits before killing the process.
const quitTimeout = time.Second

// State is the driver state.
type State int32

const (
	Off State = iota
	Initializing
	Ready
	Thinking
)

func (s State) String() string {
	switch s {
	case Off:
		return "off"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case Thinking:
		return "thinking"
	default:
		return "?"
	}
}

// Limits describes how an analysis terminates: run until stopped, to a fixed
// depth, or for a fixed time. Exactly one should be set.
type Limits struct {
	Infinite bool
	Depth    lang.Optional[int]
	MoveTime lang.Optional[time.Duration]

	// SearchMoves restricts the search to the given root moves, if any.
	SearchMoves []board.Move
}

func (l Limits) String() string {
	switch {
	case l.Infinite:
		return "infinite"
	default:
		if d, ok := l.Depth.V(); ok {
			return fmt.Sprintf("depth=%v", d)
		}
		if t, ok := l.MoveTime.V(); ok {
			return fmt.Sprintf("movetime=%v", t)
		}
		return "none"
	}
}

// InfiniteLimits runs until StopThinking.
func InfiniteLimits() Limits {
	return Limits{Infinite: true}
}

// DepthLimits searches to the given depth in plies.
func DepthLimits(depth int) Limits {
	return Limits{Depth: lang.Some(depth)}
}

// TimeLimits searches for the given wall time.
func TimeLimits(d time.Duration) Limits {
	return Limits{MoveTime: lang.Some(d)}
}

// Engine drives an external UCI engine as a child process. It supports one
// outstanding command at a time; commands are serialised on the engine's stdin
// and replies processed in arrival order by a single reader. Observations are
// delivered synchronously from the reader; listeners must not re-enter the
// driver.
type Engine struct {
	path string
	args []string
	dir  string

	// OnOutput observes every line received from the engine, parsed or not.
	OnOutput func(line string)
	// OnInfo observes every scored analysis info update.
	OnInfo func(info EngineInfo)

	cmd   *exec.Cmd
	stdin io.WriteCloser
	exited chan struct{}

	state atomic.Int32

	mu      sync.Mutex
	name    string
	author  string
	options map[string]Option
	info    []EngineInfo
	turn    board.Color // side to move in the analysed position
	best    lang.Optional[game.ExtendedMove]
	ponder  lang.Optional[board.Move]

	uciok    *completion
	readyok  *completion
	bestmove *completion

	sendMu sync.Mutex
}

// NewEngine creates a driver for the given engine executable. The path must
// name an existing binary: relative names are resolved against $PATH.
func NewEngine(path string, args ...string) (*Engine, error) {
	resolved, err := exec.LookPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: '%v': %v", ErrEngineNotFound, path, err)
	}

	return &Engine{
		path:    resolved,
		args:    args,
		options: map[string]Option{},
		info:    make([]EngineInfo, 1),
		exited:  make(chan struct{}),
	}, nil
}

// WorkDir sets the working directory for the engine process. Must be called
// before Start.
func (e *Engine) WorkDir(dir string) {
	e.dir = dir
}

// State returns the driver state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Name returns the engine name, as identified during startup.
func (e *Engine) Name() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.name
}

// Author returns the engine author, as identified during startup.
func (e *Engine) Author() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.author
}

// Options returns the options declared by the engine, keyed by name.
func (e *Engine) Options() map[string]Option {
	e.mu.Lock()
	defer e.mu.Unlock()

	ret := make(map[string]Option, len(e.options))
	for k, v := range e.options {
		ret[k] = v
	}
	return ret
}

// AnalysisInfo returns a snapshot of the given multipv slot (0-based).
func (e *Engine) AnalysisInfo(k int) (EngineInfo, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if k < 0 || k >= len(e.info) {
		return EngineInfo{}, false
	}
	return e.info[k], true
}

// BestMove returns the best move reported by the last completed analysis,
// stamped with the latest think time, depth and evaluation.
func (e *Engine) BestMove() (game.ExtendedMove, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.best.V()
}

// Ponder returns the ponder move reported alongside the last best move, if any.
func (e *Engine) Ponder() (board.Move, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ponder.V()
}

// Start spawns the engine process and performs the UCI handshake: it sends
// "uci", collects the id and option declarations and completes on "uciok".
func (e *Engine) Start(ctx context.Context) error {
	if !e.state.CompareAndSwap(int32(Off), int32(Initializing)) {
		return fmt.Errorf("%w: start from %v", ErrBadState, e.State())
	}

	cmd := exec.Command(e.path, e.args...)
	cmd.Dir = e.dir

	stdin, err := cmd.StdinPipe()
	if err != nil {
		e.state.Store(int32(Off))
		return err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		e.state.Store(int32(Off))
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		e.state.Store(int32(Off))
		return err
	}

	if err := cmd.Start(); err != nil {
		e.state.Store(int32(Off))
		return fmt.Errorf("%w: %v", ErrEngineNotFound, err)
	}

	e.cmd = cmd
	e.stdin = stdin

	c := newCompletion()
	e.mu.Lock()
	e.uciok = c
	e.mu.Unlock()

	go e.read(ctx, stdout)
	go e.drain(ctx, stderr)

	logw.Infof(ctx, "Started engine %v (pid %v)", e.path, cmd.Process.Pid)

	if err := e.send(ctx, "uci"); err != nil {
		return err
	}
	if err := c.await(ctx); err != nil {
		return err
	}

	e.state.Store(int32(Ready))
	logw.Infof(ctx, "Engine ready: %v by %v (%v options)", e.Name(), e.Author(), len(e.Options()))
	return nil
}

// Prepare is the composite startup step: it starts the engine, sets the given
// parameters and begins a new game.
func (e *Engine) Prepare(ctx context.Context, params map[string]string) error {
	if err := e.Start(ctx); err != nil {
		return err
	}
	if err := e.SetOptions(ctx, params); err != nil {
		return err
	}
	return e.NewGame(ctx)
}

// SetOptions sets the given engine parameters. Parameters that do not match a
// declared option are dropped with a diagnostic. Completes on "readyok".
func (e *Engine) SetOptions(ctx context.Context, params map[string]string) error {
	if e.State() != Ready {
		return fmt.Errorf("%w: setoptions from %v", ErrBadState, e.State())
	}

	for name, value := range params {
		e.mu.Lock()
		_, known := e.options[name]
		e.mu.Unlock()

		if !known {
			logw.Warningf(ctx, "Dropping unknown engine option '%v'", name)
			continue
		}
		if err := e.send(ctx, fmt.Sprintf("setoption name %v value %v", name, value)); err != nil {
			return err
		}
	}

	// MultiPV resizes the per-line info slots.
	lines := 1
	if v, ok := params["MultiPV"]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			lines = n
		}
	}
	e.mu.Lock()
	e.info = make([]EngineInfo, lines)
	e.mu.Unlock()

	return e.sync(ctx)
}

// NewGame resets the engine for a new game. Completes on "readyok".
func (e *Engine) NewGame(ctx context.Context) error {
	if e.State() != Ready {
		return fmt.Errorf("%w: newgame from %v", ErrBadState, e.State())
	}

	if err := e.send(ctx, "ucinewgame"); err != nil {
		return err
	}
	return e.sync(ctx)
}

// SetPosition sets the position from a FEN string and optional moves in
// coordinate notation. If the driver is thinking, the analysis is stopped first.
func (e *Engine) SetPosition(ctx context.Context, position string, moves ...string) error {
	switch e.State() {
	case Thinking:
		if err := e.StopThinking(ctx); err != nil {
			return err
		}
	case Ready:
		// ok
	default:
		return fmt.Errorf("%w: position from %v", ErrBadState, e.State())
	}

	pos, err := fen.Decode(position)
	if err != nil {
		return err
	}
	turn := pos.Turn()
	if len(moves)%2 == 1 {
		turn = turn.Opponent()
	}
	e.mu.Lock()
	e.turn = turn
	e.mu.Unlock()

	line := fmt.Sprintf("position fen %v", position)
	if len(moves) > 0 {
		line += " moves " + strings.Join(moves, " ")
	}
	return e.send(ctx, line)
}

// SetPositionFromGame sets the position of the game just before the given side
// moves at the given fullmove.
func (e *Engine) SetPositionFromGame(ctx context.Context, g *game.Game, fullmove int, turn board.Color) error {
	idx, ok := g.PlyIndex(fullmove, turn)
	if !ok {
		return fmt.Errorf("no move %v for %v in game", fullmove, turn)
	}

	var moves []string
	for _, m := range g.Moves()[:idx] {
		moves = append(moves, m.Move.String())
	}
	return e.SetPosition(ctx, g.StartFEN(), moves...)
}

// StartAnalysis starts analysing the current position with the given limits.
// The driver enters Thinking; the analysis completes on "bestmove", solicited
// by StopThinking for infinite limits.
func (e *Engine) StartAnalysis(ctx context.Context, limits Limits) error {
	if !e.state.CompareAndSwap(int32(Ready), int32(Thinking)) {
		return fmt.Errorf("%w: go from %v", ErrBadState, e.State())
	}

	e.mu.Lock()
	for i := range e.info {
		e.info[i] = EngineInfo{}
	}
	e.best = lang.Optional[game.ExtendedMove]{}
	e.ponder = lang.Optional[board.Move]{}
	e.bestmove = newCompletion()
	e.mu.Unlock()

	line := "go"
	switch {
	case limits.Infinite:
		line += " infinite"
	default:
		if d, ok := limits.Depth.V(); ok {
			line += fmt.Sprintf(" depth %v", d)
		} else if t, ok := limits.MoveTime.V(); ok {
			line += fmt.Sprintf(" movetime %v", t.Milliseconds())
		} else {
			e.state.Store(int32(Ready))
			return fmt.Errorf("no analysis limits given")
		}
	}
	if len(limits.SearchMoves) > 0 {
		line += " searchmoves " + board.PrintMoves(limits.SearchMoves)
	}

	if err := e.send(ctx, line); err != nil {
		e.state.Store(int32(Ready))
		return err
	}
	return nil
}

// WaitBestMove awaits the completion of the current analysis and returns the
// best move. Intended for depth- and time-limited analyses.
func (e *Engine) WaitBestMove(ctx context.Context) (game.ExtendedMove, error) {
	e.mu.Lock()
	c := e.bestmove
	e.mu.Unlock()

	if c == nil {
		return game.ExtendedMove{}, fmt.Errorf("%w: no analysis pending", ErrBadState)
	}
	if err := c.await(ctx); err != nil {
		return game.ExtendedMove{}, err
	}

	best, ok := e.BestMove()
	if !ok {
		return game.ExtendedMove{}, ErrProcessExited
	}
	return best, nil
}

// StopThinking stops the current analysis and completes when the solicited
// "bestmove" arrives.
func (e *Engine) StopThinking(ctx context.Context) error {
	if e.State() != Thinking {
		return fmt.Errorf("%w: stop from %v", ErrBadState, e.State())
	}

	if err := e.send(ctx, "stop"); err != nil {
		return err
	}

	e.mu.Lock()
	c := e.bestmove
	e.mu.Unlock()
	if c == nil {
		return nil
	}
	return c.await(ctx)
}

// Quit asks the engine to quit and awaits process exit for one second before
// force-terminating it. All pending completions are failed.
func (e *Engine) Quit(ctx context.Context) error {
	if e.State() == Off {
		return nil
	}

	_ = e.send(ctx, "quit")

	select {
	case <-e.exited:
		logw.Infof(ctx, "Engine exited cleanly")
	case <-time.After(quitTimeout):
		logw.Warningf(ctx, "Engine did not exit within %v. Killing", quitTimeout)
		_ = e.cmd.Process.Kill()
		<-e.exited
	}
	return nil
}

// sync sends "isready" and awaits "readyok".
func (e *Engine) sync(ctx context.Context) error {
	c := newCompletion()
	e.mu.Lock()
	e.readyok = c
	e.mu.Unlock()

	if err := e.send(ctx, "isready"); err != nil {
		return err
	}
	return c.await(ctx)
}

// send writes a single command line to the engine.
func (e *Engine) send(ctx context.Context, line string) error {
	e.sendMu.Lock()
	defer e.sendMu.Unlock()

	if e.stdin == nil {
		return ErrProcessExited
	}

	logw.Debugf(ctx, ">> %v", line)
	if _, err := io.WriteString(e.stdin, line+"\n"); err != nil {
		return fmt.Errorf("%w: %v", ErrProcessExited, err)
	}
	return nil
}

// read is the single reader over the engine's stdout. Every line is forwarded
// to OnOutput regardless of parse outcome.
func (e *Engine) read(ctx context.Context, stdout io.Reader) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		logw.Debugf(ctx, "<< %v", line)

		if e.OnOutput != nil {
			e.OnOutput(line)
		}
		e.handle(ctx, line)
	}

	// Process exited or pipe broke: fail anything pending.
	e.shutdown(ctx)
}

func (e *Engine) drain(ctx context.Context, stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		logw.Debugf(ctx, "<<(err) %v", scanner.Text())
	}
}

// handle dispatches one engine line.
func (e *Engine) handle(ctx context.Context, line string) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return
	}

	switch args[0] {
	case "id":
		if len(args) < 3 {
			return
		}
		e.mu.Lock()
		switch args[1] {
		case "name":
			e.name = strings.Join(args[2:], " ")
		case "author":
			e.author = strings.Join(args[2:], " ")
		}
		e.mu.Unlock()

	case "option":
		opt, err := ParseOption(args[1:])
		if err != nil {
			logw.Warningf(ctx, "Ignoring option line: %v", err)
			return
		}
		e.mu.Lock()
		e.options[opt.Name] = opt
		e.mu.Unlock()

	case "uciok":
		e.complete(&e.uciok, nil)

	case "readyok":
		e.complete(&e.readyok, nil)

	case "info":
		if len(args) > 1 && args[1] == "string" {
			return
		}
		e.handleInfo(line)

	case "bestmove":
		e.handleBestMove(ctx, args)

	default:
		// Protocol error: unparseable line. Logged and forwarded as raw output;
		// the driver does not terminate.
		logw.Warningf(ctx, "Unparseable engine line: '%v'", line)
	}
}

func (e *Engine) handleInfo(line string) {
	var snapshot EngineInfo
	scored := false

	e.mu.Lock()
	slot := 0
	if idx := parseMultiPV(line); idx > 0 {
		slot = idx - 1
	}
	if slot >= len(e.info) {
		grown := make([]EngineInfo, slot+1)
		copy(grown, e.info)
		e.info = grown
	}
	scored = e.info[slot].Update(line)
	snapshot = e.info[slot]
	e.mu.Unlock()

	if scored && e.OnInfo != nil {
		e.OnInfo(snapshot)
	}
}

func (e *Engine) handleBestMove(ctx context.Context, args []string) {
	if len(args) < 2 {
		logw.Warningf(ctx, "Malformed bestmove line: %v", strings.Join(args, " "))
		return
	}

	move, err := board.ParseMove(args[1])
	if err != nil {
		logw.Warningf(ctx, "Invalid best move '%v': %v", args[1], err)
		return
	}

	e.mu.Lock()
	info := e.info[0]

	best := game.NewExtendedMove(move, e.turn)
	best.UsedTime = info.Time
	best.Depth = info.Depth
	if score, ok := info.Score.V(); ok {
		if score.Type == ScoreMate {
			best.Mate = lang.Some(score.Value)
		} else {
			best.Eval = lang.Some(score.Value)
		}
	}
	e.best = lang.Some(best)

	if len(args) >= 4 && args[2] == "ponder" {
		if m, err := board.ParseMove(args[3]); err == nil {
			e.ponder = lang.Some(m)
		}
	}
	e.mu.Unlock()

	e.state.Store(int32(Ready))
	e.complete(&e.bestmove, nil)
}

// shutdown moves the driver to Off and fails all pending completions.
func (e *Engine) shutdown(ctx context.Context) {
	e.state.Store(int32(Off))

	e.sendMu.Lock()
	e.stdin = nil
	e.sendMu.Unlock()

	e.complete(&e.uciok, ErrProcessExited)
	e.complete(&e.readyok, ErrProcessExited)
	e.complete(&e.bestmove, ErrProcessExited)

	if e.cmd != nil {
		_ = e.cmd.Wait()
	}
	close(e.exited)

	logw.Infof(ctx, "Engine process exited")
}

// complete fulfills a pending completion, if any. Completions are replaced on
// the next command send, so fulfilling twice is harmless.
func (e *Engine) complete(slot **completion, err error) {
	e.mu.Lock()
	c := *slot
	e.mu.Unlock()

	if c != nil {
		c.complete(err)
	}
}

// completion is a one-shot completion signal for an awaitable command. Created
// on command send and fulfilled by the matching reply, or failed on teardown.
type completion struct {
	once sync.Once
	done iox.AsyncCloser
	err  error
}

func newCompletion() *completion {
	return &completion{done: iox.NewAsyncCloser()}
}

func (c *completion) complete(err error) {
	c.once.Do(func() {
		c.err = err
		c.done.Close()
	})
}

func (c *completion) await(ctx context.Context) error {
	select {
	case <-c.done.Closed():
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func parseMultiPV(line string) int {
	args := strings.Fields(line)
	for i := 0; i < len(args)-1; i++ {
		if args[i] == "multipv" {
			n, _ := strconv.Atoi(args[i+1])
			return n
		}
	}
	return 0
}

// fullmoveOf computes the fullmove number of a move within a game by replay
// counting.
func fullmoveOf(g *game.Game, target game.ExtendedMove) int {
	pos, err := fen.Decode(g.StartFEN())
	if err != nil {
		return 0
	}
	for _, m := range g.Moves() {
		if m.Move.Equals(target.Move) && m.Turn == target.Turn && pos.Turn() == target.Turn {
			return pos.Fullmoves()
		}
		mv := m.Move
		pos.Make(&mv)
	}
	return 0
}
