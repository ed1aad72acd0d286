package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mogaika/robot_viewer/geometry"
	"github.com/mogaika/robot_viewer/utils"
	"github.com/mogaika/robot_viewer/viewer"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer("127.0.0.1:0", zap.NewNop())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.Close(context.Background())
		ts.Close()
	})
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readCommand(t *testing.T, conn *websocket.Conn) viewer.Command {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var cmd viewer.Command
	require.NoError(t, json.Unmarshal(data, &cmd))
	return cmd
}

func sphere() *geometry.Object {
	return geometry.NewObject(geometry.NewSphere(0.1), geometry.NewMaterial(utils.ColorFloat{0, 1, 0, 1}))
}

func TestLateJoinerReceivesSnapshot(t *testing.T) {
	s, ts := newTestServer(t)

	require.NoError(t, s.SetObject("ball", sphere()))
	require.NoError(t, s.SetTransform("ball", mgl64.Translate3D(1, 2, 3)))

	conn := dial(t, ts)

	cmd := readCommand(t, conn)
	assert.Equal(t, viewer.CmdSetObject, cmd.Type)
	assert.Equal(t, "ball", cmd.Path)
	require.NotNil(t, cmd.Object)
	assert.Equal(t, geometry.TypeSphere, cmd.Object.Geometry.Type)

	cmd = readCommand(t, conn)
	assert.Equal(t, viewer.CmdSetTransform, cmd.Type)
	require.NotNil(t, cmd.Matrix)
	assert.Equal(t, mgl64.Translate3D(1, 2, 3), *cmd.Matrix)
}

func TestBroadcastReachesClients(t *testing.T) {
	s, ts := newTestServer(t)
	first := dial(t, ts)
	second := dial(t, ts)

	require.Eventually(t, func() bool {
		return len(s.hub.clientNames()) == 2
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, s.SetTransform("robot/base", mgl64.Translate3D(0, 0, 1)))
	for _, conn := range []*websocket.Conn{first, second} {
		cmd := readCommand(t, conn)
		assert.Equal(t, viewer.CmdSetTransform, cmd.Type)
		assert.Equal(t, "robot/base", cmd.Path)
	}

	names := s.hub.clientNames()
	assert.NotEqual(t, names[0], names[1])
}

func TestInvalidUpdatesAreNotBroadcast(t *testing.T) {
	s, _ := newTestServer(t)

	assert.Error(t, s.SetObject("", sphere()))
	assert.Error(t, s.SetTransform("ball", mgl64.Mat4{}))
	assert.Empty(t, s.Scene().Paths())
}

func TestSceneJSON(t *testing.T) {
	s, ts := newTestServer(t)
	require.NoError(t, s.SetObject("robot/base/geometry0", sphere()))

	resp, err := http.Get(ts.URL + "/json/scene")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var tree viewer.TreeNode
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tree))
	require.Len(t, tree.Children, 1)
	assert.Equal(t, "robot", tree.Children[0].Name)
	assert.Equal(t, geometry.TypeSphere, tree.Children[0].Children[0].Children[0].Geometry)
}

func TestDumpSceneGLB(t *testing.T) {
	s, ts := newTestServer(t)
	require.NoError(t, s.SetObject("robot/base/geometry0", sphere()))
	require.NoError(t, s.SetTransform("robot", mgl64.Translate3D(1, 0, 0)))

	resp, err := http.Get(ts.URL + "/dump/scene.glb")
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "scene.glb")
	require.Greater(t, len(data), 4)
	assert.Equal(t, "glTF", string(data[:4]))
}

func TestIndexPage(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "set_transform")
}

func TestURLAndSnippet(t *testing.T) {
	s := NewServer(":7000", zap.NewNop())
	assert.Equal(t, "http://127.0.0.1:7000/", s.URL())
	assert.Contains(t, s.EmbedSnippet(), `<iframe src="http://127.0.0.1:7000/"`)

	s = NewServer("127.0.0.1:0", zap.NewNop())
	require.NoError(t, s.Start())
	defer s.Close(context.Background())
	assert.NotEqual(t, "http://127.0.0.1:0/", s.URL())

	resp, err := http.Get(s.URL() + "json/clients")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
