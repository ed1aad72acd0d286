package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/browser"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mogaika/robot_viewer/geometry"
	"github.com/mogaika/robot_viewer/viewer"
)

//go:embed data
var staticFiles embed.FS

// Server is a Viewer that renders in browsers. Every update is applied to a
// local scene and streamed to the connected pages over websockets.
type Server struct {
	addr     string
	log      *zap.Logger
	scene    *viewer.Scene
	hub      *hub
	upgrader websocket.Upgrader
	handler  http.Handler

	http     *http.Server
	listener net.Listener
}

var _ viewer.Viewer = (*Server)(nil)

func NewServer(addr string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.L()
	}
	log = log.Named("web")

	s := &Server{
		addr:  addr,
		log:   log,
		scene: viewer.NewScene(),
	}
	s.hub = newHub(log, s.scene)

	static, err := fs.Sub(staticFiles, "data")
	if err != nil {
		panic(err)
	}

	r := mux.NewRouter()
	r.HandleFunc("/ws", s.HandlerWebsocket)
	r.HandleFunc("/json/scene", s.HandlerAjaxScene).Methods("GET")
	r.HandleFunc("/json/clients", s.HandlerAjaxClients).Methods("GET")
	r.HandleFunc("/dump/scene.glb", s.HandlerDumpSceneGLB).Methods("GET")
	r.PathPrefix("/").Handler(http.FileServer(http.FS(static)))

	stdLog := zap.NewStdLog(log)
	h := handlers.RecoveryHandler(handlers.RecoveryLogger(stdLog), handlers.PrintRecoveryStack(true))(r)
	s.handler = handlers.LoggingHandler(stdLog.Writer(), h)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Scene is the state replayed to newly connected pages.
func (s *Server) Scene() *viewer.Scene {
	return s.scene
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.Wrapf(err, "Failed to listen on %q", s.addr)
	}
	s.listener = l
	s.http = &http.Server{Handler: s.handler}

	s.log.Info("Starting server", zap.String("addr", l.Addr().String()))
	go func() {
		if err := s.http.Serve(l); err != nil && err != http.ErrServerClosed {
			s.log.Error("Server stopped", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) Close(ctx context.Context) error {
	s.hub.closeAll()
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// URL is the address of the viewer page.
func (s *Server) URL() string {
	addr := s.addr
	if s.listener != nil {
		addr = s.listener.Addr().String()
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr + "/"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + "/"
}

func (s *Server) SetObject(path string, obj *geometry.Object) error {
	if err := s.scene.SetObject(path, obj); err != nil {
		return err
	}
	return s.hub.broadcast(viewer.SetObjectCommand(path, obj))
}

func (s *Server) SetTransform(path string, m mgl64.Mat4) error {
	if err := s.scene.SetTransform(path, m); err != nil {
		return err
	}
	return s.hub.broadcast(viewer.SetTransformCommand(path, m))
}

// Open shows the viewer page in the default browser.
func (s *Server) Open() error {
	url := s.URL()
	s.log.Info("Opening browser", zap.String("url", url))
	return browser.OpenURL(url)
}

func (s *Server) EmbedSnippet() string {
	return fmt.Sprintf(`<div style="height: 400px; width: 100%%; overflow-x: auto; overflow-y: hidden; resize: both">
<iframe src="%s" style="width: 100%%; height: 100%%; border: none"></iframe>
</div>`, strings.ReplaceAll(s.URL(), `"`, "%22"))
}
