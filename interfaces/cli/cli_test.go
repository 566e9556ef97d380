package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"taxonomy/application/ports"
	"taxonomy/domain/core/entities"
	"taxonomy/domain/versioning"
	"taxonomy/infrastructure/config"
	"taxonomy/infrastructure/di"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClassifier proposes Mammals and Reptiles and deals items out to the
// requested categories in turn
func fakeClassifier(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/generate_classes", func(w http.ResponseWriter, r *http.Request) {
		var req ports.GenerateClassesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(ports.GenerateClassesResponse{Categories: []entities.Category{
			entities.NewCategory("Mammals", "Warm blooded"),
			entities.NewCategory("Reptiles", "Cold blooded"),
		}})
	})
	mux.HandleFunc("/classify_items", func(w http.ResponseWriter, r *http.Request) {
		var req ports.ClassifyItemsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := ports.ClassifyItemsResponse{}
		for idx, item := range req.Items {
			resp.ClassifiedItems = append(resp.ClassifiedItems, entities.ClassifiedItem{
				Item:     item,
				Category: req.Categories[idx%len(req.Categories)],
			})
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T, classifierURL string) *App {
	t.Helper()

	app := &App{
		loadConfig: func(string) (*config.Config, error) {
			cfg := config.Defaults()
			cfg.PersistenceBackend = "memory"
			cfg.ClassifierURL = classifierURL
			cfg.RateLimitPerMinute = 0
			return cfg, nil
		},
		newContainer: di.InitializeContainer,
	}
	t.Cleanup(func() { _ = app.Close(context.Background()) })
	return app
}

func run(app *App, stdin string, args ...string) (string, string, error) {
	cmd := NewRootCmd(app)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func initSession(t *testing.T, app *App, mode string) string {
	t.Helper()

	out, _, err := run(app, "", "session", "init", "--mode", mode)
	require.NoError(t, err)

	var view struct {
		ID   string `json:"id"`
		Mode string `json:"mode"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	require.NotEmpty(t, view.ID)
	assert.Equal(t, mode, view.Mode)
	return view.ID
}

func decodeMutation(t *testing.T, out string) mutationOutput {
	t.Helper()
	var m mutationOutput
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	return m
}

func TestCLI_MemorySessionWorkflow(t *testing.T) {
	// Arrange
	srv := fakeClassifier(t)
	app := newTestApp(t, srv.URL)
	id := initSession(t, app, "memory")

	// Act + Assert: generate
	out, _, err := run(app, "", "generate", "Root", "--num", "2", "--session", id)
	require.NoError(t, err)
	generated := decodeMutation(t, out)
	assert.Equal(t, 3, generated.Nodes)
	assert.Equal(t, 10, generated.Items)

	// classify
	out, _, err = run(app, "", "classify", "Root", "--session", id)
	require.NoError(t, err)
	assert.Greater(t, decodeMutation(t, out).Version, generated.Version)

	// show
	out, _, err = run(app, "", "session", "show", "--session", id)
	require.NoError(t, err)
	assert.Contains(t, out, "session "+id+" (memory)")
	assert.Contains(t, out, "Root [Root]")
	assert.Contains(t, out, "\n  Mammals [Mammals] (5 items)\n")
	assert.Contains(t, out, "\n  Reptiles [Reptiles] (5 items)\n")

	// move
	out, _, err = run(app, "", "move", "Mammals", "--x", "10", "--y", "20", "--session", id)
	require.NoError(t, err)
	moved := decodeMutation(t, out)
	require.NotNil(t, moved.Updated)
	assert.True(t, *moved.Updated)

	// delete
	out, _, err = run(app, "", "delete", "Reptiles", "--session", id)
	require.NoError(t, err)
	deleted := decodeMutation(t, out)
	assert.Equal(t, 2, deleted.Nodes)
	assert.Contains(t, deleted.Changes, versioning.Change{Type: versioning.ChangeTypeNodeRemoved, NodeKey: "Reptiles"})
}

func TestCLI_EditKeepsUnsetFields(t *testing.T) {
	srv := fakeClassifier(t)
	app := newTestApp(t, srv.URL)
	id := initSession(t, app, "memory")
	_, _, err := run(app, "", "generate", "Root", "--session", id)
	require.NoError(t, err)

	_, _, err = run(app, `[{"id":"a","name":"Axolotl"}]`, "edit", "Reptiles", "--name", "Amphibians", "--items", "-", "--session", id)
	require.NoError(t, err)

	out, _, err := run(app, "", "session", "show", "--items", "--session", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Amphibians [Amphibians] (1 items)")
	assert.Contains(t, out, "- Axolotl (a)")
	assert.NotContains(t, out, "Reptiles")
}

func TestCLI_Errors(t *testing.T) {
	srv := fakeClassifier(t)

	tests := []struct {
		name      string
		args      func(id string) []string
		stderrHas string
	}{
		{
			name:      "no session",
			args:      func(string) []string { return []string{"graph"} },
			stderrHas: "no session",
		},
		{
			name:      "unknown node",
			args:      func(id string) []string { return []string{"delete", "Nope", "--session", id} },
			stderrHas: "INVALID_TARGET",
		},
		{
			name:      "root deletion",
			args:      func(id string) []string { return []string{"delete", "Root", "--session", id} },
			stderrHas: "ROOT_DELETION_FORBIDDEN",
		},
		{
			name:      "malformed items",
			args:      func(id string) []string { return []string{"edit", "Root", "--items", `{"id":1}`, "--session", id} },
			stderrHas: "INVALID_ITEMS",
		},
		{
			name:      "nothing to classify",
			args:      func(id string) []string { return []string{"classify", "Root", "--session", id} },
			stderrHas: "NOTHING_TO_CLASSIFY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			app := newTestApp(t, srv.URL)
			id := initSession(t, app, "memory")

			// Act
			_, stderr, err := run(app, "", tt.args(id)...)

			// Assert
			require.Error(t, err)
			assert.Contains(t, stderr, tt.stderrHas)
		})
	}
}

func TestCLI_GraphPrintsProjection(t *testing.T) {
	srv := fakeClassifier(t)
	app := newTestApp(t, srv.URL)
	id := initSession(t, app, "memory")

	out, _, err := run(app, "", "graph", "--session", id, "--pretty")
	require.NoError(t, err)

	var view struct {
		Graph struct {
			Nodes []json.RawMessage `json:"nodes"`
		} `json:"graph"`
		Version int `json:"version"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Len(t, view.Graph.Nodes, 1)
	assert.Contains(t, out, "\n  ")
}

func TestCLI_RemoteSessionOverMemoryStore(t *testing.T) {
	srv := fakeClassifier(t)
	app := newTestApp(t, srv.URL)
	id := initSession(t, app, "remote")

	out, _, err := run(app, "", "session", "reload", "--session", id)
	require.NoError(t, err)
	assert.Equal(t, 1, decodeMutation(t, out).Nodes)
}
