// Package presenter holds the transient state of one analysis view: the
// selected image, its preview, the loading flag and the last result or error.
//
// A Presenter allows a single outstanding analysis. While a request is in
// flight the trigger is disabled and Analyze returns ErrBusy without calling
// the analyzer. Selecting a new image clears the previous result and error;
// if that happens mid-request the late answer is dropped when it arrives.
package presenter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/menta2k/agri-assistant/internal/utils"
	"github.com/menta2k/agri-assistant/pkg/analysis"
	"github.com/menta2k/agri-assistant/pkg/encoder"
	"github.com/menta2k/agri-assistant/pkg/types"
)

// State is the lifecycle position of a view
type State string

const (
	StateIdle          State = "idle"
	StateImageSelected State = "imageSelected"
	StateAnalyzing     State = "analyzing"
	StateResultReady   State = "resultReady"
	StateFailed        State = "failed"
)

const (
	// NoImageMessage is shown when analysis is triggered before selecting an image
	NoImageMessage = "Please select an image first."
	// UnknownErrorMessage is shown for errors the analyzer did not classify
	UnknownErrorMessage = "An unknown error occurred."
)

var (
	// ErrBusy is returned when a trigger arrives while a request is in flight
	ErrBusy = errors.New("analysis already in progress")
	// ErrNoImage is returned when analysis is triggered without a selected image
	ErrNoImage = errors.New("no image selected")

	errPanicked = errors.New("analyzer panicked")
)

// AnalyzeFunc runs one analysis of src
type AnalyzeFunc[R any] func(ctx context.Context, src encoder.Source) (*R, error)

// Previewer renders a displayable preview of image bytes
type Previewer interface {
	Preview(data []byte) (string, error)
}

// View is an immutable copy of the presenter state used for rendering
type View[R any] struct {
	State    State
	FileName string
	FileSize string
	Preview  string
	Loading  bool
	Error    string
	Result   *R
}

// CanAnalyze reports whether the analyze trigger should be enabled
func (v View[R]) CanAnalyze() bool {
	return v.FileName != "" && !v.Loading
}

// Presenter owns the state of one analysis view
type Presenter[R any] struct {
	analyze   AnalyzeFunc[R]
	clone     func(*R) *R
	previewer Previewer

	mu       sync.Mutex
	state    State
	file     *encoder.File
	preview  string
	inFlight bool
	errMsg   string
	result   *R
	// generation changes on every selection so stale answers can be recognised
	generation uint64
}

// New creates a presenter around analyze. clone copies results handed out by
// Snapshot; previewer may be nil.
func New[R any](analyze AnalyzeFunc[R], clone func(*R) *R, previewer Previewer) *Presenter[R] {
	return &Presenter[R]{
		analyze:   analyze,
		clone:     clone,
		previewer: previewer,
		state:     StateIdle,
	}
}

// NewSoil creates the presenter for the soil analysis view
func NewSoil(a *analysis.Analyzer, previewer Previewer) *Presenter[types.SoilAnalysisResult] {
	return New[types.SoilAnalysisResult](a.AnalyzeSoil, (*types.SoilAnalysisResult).Clone, previewer)
}

// NewPest creates the presenter for the pest identifier view
func NewPest(a *analysis.Analyzer, previewer Previewer) *Presenter[types.PestAnalysisResult] {
	return New[types.PestAnalysisResult](a.IdentifyPest, (*types.PestAnalysisResult).Clone, previewer)
}

// Select stores a newly chosen image, clearing any previous result or error
func (p *Presenter[R]) Select(file *encoder.File) {
	var preview string
	if p.previewer != nil && file != nil {
		// a missing preview only affects display
		preview, _ = p.previewer.Preview(file.Data)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.generation++
	p.file = file
	p.preview = preview
	p.result = nil
	p.errMsg = ""
	if file == nil {
		p.state = StateIdle
		return
	}
	p.state = StateImageSelected
}

// Reset discards all state, as when the user leaves the view
func (p *Presenter[R]) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.generation++
	p.file = nil
	p.preview = ""
	p.result = nil
	p.errMsg = ""
	p.state = StateIdle
}

// Analyze runs the analysis for the selected image and blocks until it
// completes. Failures end in StateFailed with a displayable message. It
// returns ErrBusy when a request is already running and ErrNoImage when
// nothing is selected; neither calls the analyzer.
func (p *Presenter[R]) Analyze(ctx context.Context) error {
	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		return ErrBusy
	}
	if p.file == nil {
		p.state = StateFailed
		p.errMsg = NoImageMessage
		p.result = nil
		p.mu.Unlock()
		return ErrNoImage
	}

	file := p.file
	gen := p.generation
	p.inFlight = true
	p.state = StateAnalyzing
	p.errMsg = ""
	p.result = nil
	p.mu.Unlock()

	result, err := p.run(ctx, file)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.inFlight = false
	if gen != p.generation {
		// the user picked another image meanwhile
		return nil
	}
	if err != nil {
		p.state = StateFailed
		p.errMsg = displayMessage(err)
		return nil
	}
	p.state = StateResultReady
	p.result = result
	return nil
}

// run calls the analyzer, turning a panic into an error so the view does not
// stay busy forever
func (p *Presenter[R]) run(ctx context.Context, file *encoder.File) (result *R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errPanicked, r)
		}
	}()
	return p.analyze(ctx, file)
}

// Busy reports whether a request is in flight
func (p *Presenter[R]) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight
}

// Snapshot returns a copy of the current state
func (p *Presenter[R]) Snapshot() View[R] {
	p.mu.Lock()
	defer p.mu.Unlock()

	v := View[R]{
		State:   p.state,
		Preview: p.preview,
		Loading: p.inFlight,
		Error:   p.errMsg,
	}
	if p.file != nil {
		v.FileName = p.file.Name
		v.FileSize = utils.FormatFileSize(p.file.Size())
	}
	if p.result != nil {
		v.Result = p.clone(p.result)
	}
	return v
}

func displayMessage(err error) string {
	if errors.Is(err, analysis.ErrAnalysisFailed) {
		return analysis.FailureMessage
	}
	return UnknownErrorMessage
}

// FormatPh renders a pH value with one decimal place
func FormatPh(ph float64) string {
	return strconv.FormatFloat(ph, 'f', 1, 64)
}
