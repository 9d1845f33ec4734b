package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/menta2k/agri-assistant/internal/utils"
	"github.com/menta2k/agri-assistant/pkg/analysis"
	"github.com/menta2k/agri-assistant/pkg/encoder"
	"github.com/menta2k/agri-assistant/pkg/presenter"
	"github.com/menta2k/agri-assistant/pkg/types"
)

const formField = "image"

// viewText is the copy shown on each view
type viewText struct {
	Title       string
	Intro       string
	Button      string
	LoadingText string
}

var texts = map[types.AnalysisKind]viewText{
	types.KindSoil: {
		Title:       "Soil Analysis",
		Intro:       "Upload a clear photo of a soil sample to identify its type, estimate its pH and get crop suggestions for Namibian conditions.",
		Button:      "Analyze Soil",
		LoadingText: "Analyzing soil sample...",
	},
	types.KindPest: {
		Title:       "Pest Identifier",
		Intro:       "Upload a photo of an insect or pest to identify it, learn whether it harms your crops and how to control it.",
		Button:      "Identify Pest",
		LoadingText: "Identifying pest...",
	},
}

// page is the data rendered by view.html
type page struct {
	Kind string
	viewText

	State      presenter.State
	FileName   string
	FileSize   string
	Preview    template.URL
	Loading    bool
	CanAnalyze bool
	Error      string

	Soil *types.SoilAnalysisResult
	Pest *types.PestAnalysisResult

	Year int
}

func (s *Server) handleView(kind types.AnalysisKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := s.sessions.get(c)
		sess.activate(kind)
		c.HTML(http.StatusOK, "view.html", s.render(sess, kind))
	}
}

func (s *Server) render(sess *session, kind types.AnalysisKind) page {
	p := page{Kind: string(kind), viewText: texts[kind], Year: time.Now().Year()}

	switch kind {
	case types.KindSoil:
		v := sess.soil.Snapshot()
		fill(&p, v)
		p.Soil = v.Result
	case types.KindPest:
		v := sess.pest.Snapshot()
		fill(&p, v)
		p.Pest = v.Result
	}
	return p
}

func fill[R any](p *page, v presenter.View[R]) {
	p.State = v.State
	p.FileName = v.FileName
	p.FileSize = v.FileSize
	// previews are JPEG data URLs produced by the processor
	p.Preview = template.URL(v.Preview)
	p.Loading = v.Loading
	p.CanAnalyze = v.CanAnalyze()
	p.Error = v.Error
}

// handleSelect stores the uploaded image. A submission without a file keeps
// the current state.
func (s *Server) handleSelect(kind types.AnalysisKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := s.sessions.get(c)
		sess.activate(kind)

		file, err := s.readUpload(c)
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			s.logger.Warn("failed to read upload", zap.Error(err))
			c.String(http.StatusBadRequest, "invalid upload: %v", err)
			return
		default:
			switch kind {
			case types.KindSoil:
				sess.soil.Select(file)
			case types.KindPest:
				sess.pest.Select(file)
			}
		}
		c.Redirect(http.StatusSeeOther, "/"+string(kind))
	}
}

// handleAnalyze runs the analysis and redirects back to the view once it
// has settled. The request context is detached so a closed tab does not
// cancel the model call.
func (s *Server) handleAnalyze(kind types.AnalysisKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := s.sessions.get(c)
		sess.activate(kind)

		ctx := context.WithoutCancel(c.Request.Context())
		var err error
		switch kind {
		case types.KindSoil:
			err = sess.soil.Analyze(ctx)
		case types.KindPest:
			err = sess.pest.Analyze(ctx)
		}
		if errors.Is(err, presenter.ErrBusy) {
			s.logger.Debug("analysis already running", zap.String("kind", string(kind)))
		}
		c.Redirect(http.StatusSeeOther, "/"+string(kind))
	}
}

// handleAPI analyses one image without touching session state. The image is
// sent either as a multipart file or as JSON {"image": "data:..."}.
func (s *Server) handleAPI(kind types.AnalysisKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := s.readAPIImage(c)
		if errors.Is(err, http.ErrMissingFile) {
			c.JSON(http.StatusBadRequest, gin.H{"error": presenter.NoImageMessage})
			return
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := s.assistant.Analyze(context.WithoutCancel(c.Request.Context()), kind, file)
		if err != nil {
			status := http.StatusBadGateway
			msg := analysis.FailureMessage
			if !errors.Is(err, analysis.ErrAnalysisFailed) {
				status = http.StatusInternalServerError
				msg = presenter.UnknownErrorMessage
			}
			c.JSON(status, gin.H{"error": msg})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

type apiRequest struct {
	Image string `json:"image"`
	Name  string `json:"name"`
}

func (s *Server) readAPIImage(c *gin.Context) (*encoder.File, error) {
	if !strings.HasPrefix(c.ContentType(), "application/json") {
		return s.readUpload(c)
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.encodedLimit())
	var req apiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	if req.Image == "" {
		return nil, http.ErrMissingFile
	}
	img, err := encoder.ParseDataURL(req.Image)
	if err != nil {
		return nil, err
	}
	name := req.Name
	if name == "" {
		name = formField
	}
	return encoder.Decode(name, img)
}

func (s *Server) readUpload(c *gin.Context) (*encoder.File, error) {
	// leave room for the multipart envelope
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes+64<<10)

	header, err := c.FormFile(formField)
	if err != nil {
		return nil, err
	}
	if header.Size > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("image is larger than %s", utils.FormatFileSize(s.cfg.MaxUploadBytes))
	}

	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return encoder.Read(header.Filename, header.Header.Get("Content-Type"), f)
}

// encodedLimit is the body limit for JSON requests carrying base64 data
func (s *Server) encodedLimit() int64 {
	return s.cfg.MaxUploadBytes*4/3 + 4096
}
