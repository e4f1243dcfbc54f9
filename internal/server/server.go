// Package server exposes an editing session over a JSON HTTP API.
package server

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/gin-gonic/gin"
	"github.com/py60800/abcedit/editor"
	"github.com/py60800/abcedit/export"
	"github.com/py60800/abcedit/session"
	"github.com/py60800/abcedit/theory"
)

type Server struct {
	s      *session.Session
	loop   *session.Loop
	logger *slog.Logger
	Title  string
	Tempo  float64
}

// New serves s. Every request runs on l, which the caller must run.
func New(s *session.Session, l *session.Loop, logger *slog.Logger) *Server {
	return &Server{s: s, loop: l, logger: logger, Title: "Untitled", Tempo: 120}
}

type entryJSON struct {
	Rhythm     string `json:"rhythm"`
	Dotted     bool   `json:"dotted"`
	Triplet    bool   `json:"triplet"`
	Tied       bool   `json:"tied"`
	Rest       bool   `json:"rest"`
	Accidental string `json:"accidental"`
	AutoBeam   bool   `json:"auto_beam"`
}

type selectionJSON struct {
	Measure     int      `json:"measure"`
	Note        int      `json:"note"`
	Pitch       string   `json:"pitch"`
	Rhythm      string   `json:"rhythm"`
	Dotted      bool     `json:"dotted"`
	Rest        bool     `json:"rest"`
	Tied        bool     `json:"tied"`
	Beamed      *bool    `json:"beamed,omitempty"`
	Decorations []string `json:"decorations"`
	Start       int      `json:"start"`
	End         int      `json:"end"`
}

type stateJSON struct {
	Text      string         `json:"text"`
	Changed   bool           `json:"changed"`
	Measures  int            `json:"measures"`
	Entry     entryJSON      `json:"entry"`
	Selection *selectionJSON `json:"selection,omitempty"`
	CanUndo   bool           `json:"can_undo"`
	CanRedo   bool           `json:"can_redo"`
}

// state must run on the loop.
func (srv *Server) state(changed bool) stateJSON {
	e := srv.s.Entry()
	st := stateJSON{
		Text:     srv.s.Text(),
		Changed:  changed,
		Measures: srv.s.Editor().MeasureCount(),
		Entry: entryJSON{
			Rhythm:     e.Rhythm.String(),
			Dotted:     e.Dotted,
			Triplet:    e.Triplet,
			Tied:       e.Tied,
			Rest:       e.Rest,
			Accidental: e.Accidental.String(),
			AutoBeam:   e.AutoBeam,
		},
		CanUndo: srv.s.History().CanUndo(),
		CanRedo: srv.s.History().CanRedo(),
	}
	if sel, ok := srv.s.Selector().Selected(); ok {
		d := sel.Data
		st.Selection = &selectionJSON{
			Measure:     sel.MeasureIdx,
			Note:        sel.NoteIdx,
			Pitch:       d.Note,
			Rhythm:      d.Rhythm.String(),
			Dotted:      d.Dotted,
			Rest:        d.Rest,
			Tied:        d.Tied,
			Beamed:      d.Beamed,
			Decorations: d.Decorations,
			Start:       d.StartChar,
			End:         d.EndChar,
		}
	}
	return st
}

// run executes fn on the loop and answers with the resulting state.
func (srv *Server) run(c *gin.Context, fn func() bool) {
	var st stateJSON
	err := srv.loop.Do(c.Request.Context(), func() {
		st = srv.state(fn())
	})
	if err != nil {
		srv.logger.Warn("request dropped", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}

func (srv *Server) op(fn func() (string, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		srv.run(c, func() bool {
			_, ok := fn()
			return ok
		})
	}
}

func badRequest(c *gin.Context, err error) {
	msg := fmsg.GetIssue(err)
	if msg == "" {
		msg = err.Error()
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func (srv *Server) getScore(c *gin.Context) {
	srv.run(c, func() bool { return false })
}

func (srv *Server) getMusicXML(c *gin.Context) {
	var out string
	err := srv.loop.Do(c.Request.Context(), func() {
		x := export.MusicXMLNew()
		out = x.Generate(export.ScoreOf(srv.s.Editor(), srv.Title))
		for _, w := range x.Warnings {
			srv.logger.Debug("musicxml", "warning", w)
		}
	})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/vnd.recordare.musicxml+xml", []byte(out))
}

func (srv *Server) getMIDI(c *gin.Context) {
	var buf bytes.Buffer
	var werr error
	err := srv.loop.Do(c.Request.Context(), func() {
		_, werr = export.SMFNew(srv.Tempo).Write(&buf, export.ScoreOf(srv.s.Editor(), srv.Title))
	})
	if err == nil {
		err = werr
	}
	if err != nil {
		srv.logger.Error("midi export", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "audio/midi", buf.Bytes())
}

type noteRequest struct {
	MIDI *int   `json:"midi"`
	Name string `json:"name"`
}

func (srv *Server) addNote(c *gin.Context) {
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.MIDI == nil && req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "midi or name required"})
		return
	}
	srv.run(c, func() bool {
		var ok bool
		if req.MIDI != nil {
			_, ok = srv.s.AddMIDI(*req.MIDI)
		} else {
			_, ok = srv.s.AddName(req.Name)
		}
		return ok
	})
}

type selectRequest struct {
	Line      int `json:"line"`
	Measure   int `json:"measure"`
	StartChar int `json:"start_char"`
	Drag      int `json:"drag"`
}

func (srv *Server) selectNote(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	srv.run(c, func() bool {
		_, ok := srv.s.Select(editor.Click{Line: req.Line, Measure: req.Measure, StartChar: req.StartChar}, req.Drag)
		return ok
	})
}

func (srv *Server) selectNext(c *gin.Context) {
	srv.run(c, func() bool {
		_, ok := srv.s.SelectNext()
		return ok
	})
}

func (srv *Server) selectPrev(c *gin.Context) {
	srv.run(c, func() bool {
		_, ok := srv.s.SelectPrev()
		return ok
	})
}

func (srv *Server) moveSelected(c *gin.Context) {
	var req struct {
		Steps int `json:"steps" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	srv.op(func() (string, bool) { return srv.s.MoveSelected(req.Steps) })(c)
}

func (srv *Server) setAccidental(c *gin.Context) {
	var req struct {
		Accidental string `json:"accidental"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	acc, ok := theory.ParseAccidental(req.Accidental)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown accidental " + req.Accidental})
		return
	}
	srv.op(func() (string, bool) { return srv.s.SetAccidental(acc) })(c)
}

func (srv *Server) toggleDecoration(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	srv.op(func() (string, bool) { return srv.s.ToggleDecoration(req.Name) })(c)
}

func (srv *Server) entry(c *gin.Context) {
	var req struct {
		Command string `json:"command" binding:"required"`
		Arg     string `json:"arg"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd, err := session.ParseCommand(req.Command, req.Arg)
	if err != nil {
		badRequest(c, err)
		return
	}
	srv.run(c, func() bool {
		srv.s.Apply(cmd)
		return false
	})
}

func (srv *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		srv.logger.Debug("http", "method", c.Request.Method, "path", c.Request.URL.Path,
			"status", c.Writer.Status(), "elapsed", time.Since(start))
	})

	api := r.Group("/api")
	api.GET("/score", srv.getScore)
	api.GET("/score.xml", srv.getMusicXML)
	api.GET("/score.mid", srv.getMIDI)
	api.POST("/notes", srv.addNote)
	api.POST("/backspace", srv.op(srv.s.Backspace))
	api.POST("/newline", srv.op(srv.s.NewLine))
	api.POST("/undo", srv.op(srv.s.Undo))
	api.POST("/redo", srv.op(srv.s.Redo))
	api.POST("/select", srv.selectNote)
	api.POST("/select/next", srv.selectNext)
	api.POST("/select/prev", srv.selectPrev)
	api.POST("/selection/move", srv.moveSelected)
	api.POST("/selection/accidental", srv.setAccidental)
	api.POST("/selection/tie", srv.op(srv.s.ToggleTie))
	api.POST("/selection/beam", srv.op(srv.s.ToggleBeam))
	api.POST("/selection/decoration", srv.toggleDecoration)
	api.POST("/entry", srv.entry)
	return r
}

// ListenAndServe serves until ctx is done.
func (srv *Server) ListenAndServe(ctx context.Context, addr string) error {
	hs := &http.Server{Addr: addr, Handler: srv.Handler()}
	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()
	srv.logger.Info("listening", "addr", addr)
	select {
	case err := <-errc:
		return fault.Wrap(err, fmsg.With("serve "+addr))
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdown); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fault.Wrap(err)
	}
	return nil
}
