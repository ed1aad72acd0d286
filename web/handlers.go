package web

import (
	"bytes"
	"net/http"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mogaika/robot_viewer/utils/gltfutils"
	"github.com/mogaika/robot_viewer/webutils"
)

func (s *Server) HandlerWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	s.hub.serve(conn)
}

func (s *Server) HandlerAjaxScene(w http.ResponseWriter, r *http.Request) {
	webutils.WriteJson(w, s.scene.Tree())
}

func (s *Server) HandlerAjaxClients(w http.ResponseWriter, r *http.Request) {
	webutils.WriteJson(w, s.hub.clientNames())
}

func (s *Server) HandlerDumpSceneGLB(w http.ResponseWriter, r *http.Request) {
	se := gltfutils.NewSceneExporter()
	for _, path := range s.scene.Paths() {
		node, ok := s.scene.Node(path)
		if !ok {
			continue
		}
		world := s.scene.WorldTransform(path)
		if node.Object != nil {
			se.AddObject(path, node.Object, world)
		} else {
			se.AddGroup(path, world)
		}
	}

	var buf bytes.Buffer
	if err := gltfutils.ExportBinary(&buf, se.Doc); err != nil {
		webutils.WriteError(w, http.StatusInternalServerError, errors.Wrapf(err, "Failed to export scene"))
		return
	}
	webutils.WriteFile(w, &buf, "scene.glb")
}
