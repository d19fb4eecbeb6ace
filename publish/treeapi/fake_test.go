package treeapi

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type fakeCommit struct {
	Tree    string
	Parents []string
	Message string
	Author  string
}

type fakeEntry struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
}

// fakeGitHub implements the subset of the git data API used by Publisher.
type fakeGitHub struct {
	mu sync.Mutex

	branch  string
	tip     string
	blobs   map[string][]byte
	trees   map[string][]fakeEntry
	commits map[string]fakeCommit
	seq     int

	// conflict makes every merge answer 409.
	conflict bool
	// failStatus, when set, answers blob creation with this status.
	failStatus int

	authHeaders []string
	calls       []string
}

func newFakeGitHub(t *testing.T, branch string) (*fakeGitHub, *httptest.Server) {
	t.Helper()

	f := &fakeGitHub{
		branch:  branch,
		blobs:   make(map[string][]byte),
		trees:   make(map[string][]fakeEntry),
		commits: make(map[string]fakeCommit),
	}
	root := f.nextSHA()
	f.trees[root] = nil
	f.tip = f.nextSHA()
	f.commits[f.tip] = fakeCommit{Tree: root, Message: "initial"}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/{owner}/{repo}/git/ref/{ref...}", f.getRef)
	mux.HandleFunc("POST /repos/{owner}/{repo}/git/blobs", f.createBlob)
	mux.HandleFunc("POST /repos/{owner}/{repo}/git/trees", f.createTree)
	mux.HandleFunc("POST /repos/{owner}/{repo}/git/commits", f.createCommit)
	mux.HandleFunc("PATCH /repos/{owner}/{repo}/git/refs/{ref...}", f.updateRef)
	mux.HandleFunc("POST /repos/{owner}/{repo}/merges", f.merge)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))
		f.calls = append(f.calls, r.Method+" "+r.URL.Path)
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)
	return f, server
}

func (f *fakeGitHub) nextSHA() string {
	f.seq++
	return fmt.Sprintf("%040x", f.seq)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeGitHub) getRef(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.PathValue("ref") != "heads/"+f.branch {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ref":    "refs/heads/" + f.branch,
		"object": map[string]string{"sha": f.tip, "type": "commit"},
	})
}

func (f *fakeGitHub) createBlob(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failStatus != 0 {
		writeJSON(w, f.failStatus, map[string]string{"message": "denied"})
		return
	}
	if body.Encoding != "base64" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "unexpected encoding"})
		return
	}
	data, err := base64.StdEncoding.DecodeString(body.Content)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": err.Error()})
		return
	}

	sha := f.nextSHA()
	f.blobs[sha] = data
	writeJSON(w, http.StatusCreated, map[string]string{"sha": sha})
}

func (f *fakeGitHub) createTree(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BaseTree string      `json:"base_tree"`
		Tree     []fakeEntry `json:"tree"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if body.BaseTree != "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "base tree not expected"})
		return
	}
	for _, e := range body.Tree {
		if _, ok := f.blobs[e.SHA]; !ok {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "unknown blob " + e.SHA})
			return
		}
	}

	sha := f.nextSHA()
	f.trees[sha] = body.Tree
	writeJSON(w, http.StatusCreated, map[string]string{"sha": sha})
}

func (f *fakeGitHub) createCommit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string   `json:"message"`
		Tree    string   `json:"tree"`
		Parents []string `json:"parents"`
		Author  struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"author"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.trees[body.Tree]; !ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "unknown tree"})
		return
	}

	sha := f.nextSHA()
	f.commits[sha] = fakeCommit{
		Tree:    body.Tree,
		Parents: body.Parents,
		Message: body.Message,
		Author:  body.Author.Name + " <" + body.Author.Email + ">",
	}
	writeJSON(w, http.StatusCreated, map[string]string{"sha": sha})
}

func (f *fakeGitHub) updateRef(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SHA   string `json:"sha"`
		Force bool   `json:"force"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if r.PathValue("ref") != "heads/"+f.branch {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	if !body.Force && !f.isAncestor(f.tip, body.SHA) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Update is not a fast forward"})
		return
	}

	f.tip = body.SHA
	writeJSON(w, http.StatusOK, map[string]any{
		"ref":    "refs/heads/" + f.branch,
		"object": map[string]string{"sha": f.tip, "type": "commit"},
	})
}

func (f *fakeGitHub) merge(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Base          string `json:"base"`
		Head          string `json:"head"`
		CommitMessage string `json:"commit_message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case body.Base != f.branch:
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Base does not exist"})
	case f.conflict:
		writeJSON(w, http.StatusConflict, map[string]string{"message": "Merge conflict"})
	case f.isAncestor(body.Head, f.tip):
		w.WriteHeader(http.StatusNoContent)
	default:
		head := f.commits[body.Head]
		sha := f.nextSHA()
		f.commits[sha] = fakeCommit{
			Tree:    head.Tree,
			Parents: []string{f.tip, body.Head},
			Message: body.CommitMessage,
		}
		f.tip = sha
		writeJSON(w, http.StatusCreated, map[string]string{"sha": sha})
	}
}

// isAncestor reports whether ancestor is reachable from sha.
func (f *fakeGitHub) isAncestor(ancestor, sha string) bool {
	if ancestor == sha {
		return true
	}
	for _, parent := range f.commits[sha].Parents {
		if f.isAncestor(ancestor, parent) {
			return true
		}
	}
	return false
}

// advance simulates another writer moving the branch.
func (f *fakeGitHub) advance(files map[string]string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var entries []fakeEntry
	for path, content := range files {
		blob := f.nextSHA()
		f.blobs[blob] = []byte(content)
		entries = append(entries, fakeEntry{Path: path, Mode: "100644", Type: "blob", SHA: blob})
	}
	tree := f.nextSHA()
	f.trees[tree] = entries

	sha := f.nextSHA()
	f.commits[sha] = fakeCommit{Tree: tree, Parents: []string{f.tip}, Message: "concurrent change"}
	f.tip = sha
	return sha
}

// files returns the file contents of the tree of commit sha.
func (f *fakeGitHub) files(sha string) map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]string)
	for _, e := range f.trees[f.commits[sha].Tree] {
		out[e.Path] = string(f.blobs[e.SHA])
	}
	return out
}

func (f *fakeGitHub) head() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tip
}

func (f *fakeGitHub) commit(sha string) fakeCommit {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commits[sha]
}
