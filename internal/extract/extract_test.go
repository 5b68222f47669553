package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeprism/codeprism/pkg/parser"
	"github.com/codeprism/codeprism/pkg/uast"
)

func extractSource(t *testing.T, path string, lang parser.Language, source string) *uast.FileResult {
	t.Helper()
	p := parser.New()
	defer p.Close()

	res, err := p.Parse([]byte(source), lang, path)
	require.NoError(t, err)
	defer res.Tree.Close()

	ext := ForLanguage(lang)
	require.NotNil(t, ext)
	defer ext.Close()

	return ext.Extract(res)
}

func findNodes(res *uast.FileResult, kind uast.NodeKind) []uast.Node {
	var out []uast.Node
	for _, n := range res.Nodes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

func findNode(res *uast.FileResult, kind uast.NodeKind, name string) *uast.Node {
	for i, n := range res.Nodes {
		if n.Kind == kind && n.Name == name {
			return &res.Nodes[i]
		}
	}
	return nil
}

func hasPending(res *uast.FileResult, target string, kind uast.EdgeKind) bool {
	for _, p := range res.Pending {
		if p.TargetName == target && p.Kind == kind {
			return true
		}
	}
	return false
}

func TestGoExtraction(t *testing.T) {
	source := `package store

import "fmt"

type Repo struct {
	Base
	name string
}

type Reader interface {
	Get(id string) string
}

func NewRepo(name string) *Repo {
	fmt.Println(name)
	return &Repo{name: name}
}

func (r *Repo) Query() string {
	q := "SELECT id, name FROM repos WHERE active = 1"
	return runQuery(q)
}
`
	res := extractSource(t, "store/repo.go", parser.LangGo, source)

	mod := findNode(res, uast.KindModule, "store")
	require.NotNil(t, mod)

	repo := findNode(res, uast.KindClass, "Repo")
	require.NotNil(t, repo)
	assert.Equal(t, "struct", repo.Attributes["type"])
	assert.True(t, hasPending(res, "Base", uast.EdgeExtends))

	iface := findNode(res, uast.KindClass, "Reader")
	require.NotNil(t, iface)
	assert.Equal(t, "interface", iface.Attributes["type"])

	fn := findNode(res, uast.KindFunction, "NewRepo")
	require.NotNil(t, fn)
	assert.Contains(t, fn.Attributes["signature"], "NewRepo(name string)")
	assert.Equal(t, "store.NewRepo", fn.QualifiedName)

	method := findNode(res, uast.KindMethod, "Query")
	require.NotNil(t, method)
	assert.Equal(t, "Repo", method.Attributes["receiver"])

	imp := findNode(res, uast.KindImport, "fmt")
	require.NotNil(t, imp)

	assert.NotNil(t, findNode(res, uast.KindParameter, "name"))
	assert.True(t, hasPending(res, "runQuery", uast.EdgeCalls))

	queries := findNodes(res, uast.KindSQLQuery)
	require.Len(t, queries, 1)
	assert.Contains(t, queries[0].Attributes["query"], "FROM repos")
}

func TestGoRouteAndEventDetection(t *testing.T) {
	source := `package api

func Register(r Router, bus Bus) {
	r.Get("/users", listUsers)
	r.Post("/users", createUser)
	bus.Publish("user.created", nil)
}
`
	res := extractSource(t, "api/routes.go", parser.LangGo, source)

	routes := findNodes(res, uast.KindRoute)
	require.Len(t, routes, 2)
	assert.Equal(t, "/users", routes[0].Name)
	assert.Equal(t, "GET", routes[0].Attributes["method"])
	assert.Equal(t, "POST", routes[1].Attributes["method"])
	assert.True(t, hasPending(res, "listUsers", uast.EdgeRoutesTo))

	events := findNodes(res, uast.KindEvent)
	require.Len(t, events, 1)
	assert.Equal(t, "user.created", events[0].Name)
}

func TestGoNodeIDsAreStable(t *testing.T) {
	source := "package p\n\nfunc F() {}\n"
	a := extractSource(t, "p/f.go", parser.LangGo, source)
	b := extractSource(t, "p/f.go", parser.LangGo, source)

	require.Equal(t, len(a.Nodes), len(b.Nodes))
	for i := range a.Nodes {
		assert.Equal(t, a.Nodes[i].ID, b.Nodes[i].ID)
	}
	assert.Equal(t, a.ContentHash, b.ContentHash)
}

func TestPythonExtraction(t *testing.T) {
	source := `import os
from collections import OrderedDict

class UserService(BaseService):
    def __init__(self, db):
        self.db = db

    def get_user(self, user_id):
        if user_id < 0:
            raise ValueError("bad id")
        return self.db.fetch(user_id)

def helper(x):
    return len(x)
`
	res := extractSource(t, "svc/users.py", parser.LangPython, source)

	mod := findNode(res, uast.KindModule, "users")
	require.NotNil(t, mod)

	cls := findNode(res, uast.KindClass, "UserService")
	require.NotNil(t, cls)
	assert.True(t, hasPending(res, "BaseService", uast.EdgeExtends))

	method := findNode(res, uast.KindMethod, "get_user")
	require.NotNil(t, method)
	assert.Equal(t, "users.UserService.get_user", method.QualifiedName)

	assert.NotNil(t, findNode(res, uast.KindParameter, "user_id"))
	assert.Nil(t, findNode(res, uast.KindParameter, "self"))

	assert.NotNil(t, findNode(res, uast.KindImport, "os"))
	assert.NotNil(t, findNode(res, uast.KindImport, "collections"))

	assert.True(t, hasPending(res, "ValueError", uast.EdgeRaises))
	assert.True(t, hasPending(res, "fetch", uast.EdgeCalls))

	fn := findNode(res, uast.KindFunction, "helper")
	require.NotNil(t, fn)
	assert.Equal(t, "users.helper", fn.QualifiedName)
}

func TestPythonRouteDecorator(t *testing.T) {
	source := `@app.get("/items/{item_id}")
def read_item(item_id):
    return {"item_id": item_id}
`
	res := extractSource(t, "app/main.py", parser.LangPython, source)

	routes := findNodes(res, uast.KindRoute)
	require.Len(t, routes, 1)
	assert.Equal(t, "/items/{item_id}", routes[0].Name)
	assert.Equal(t, "GET", routes[0].Attributes["method"])

	fn := findNode(res, uast.KindFunction, "read_item")
	require.NotNil(t, fn)
	assert.Contains(t, fn.Attributes["decorators"], "app.get")

	// Route node points at the handler with a resolved edge.
	found := false
	for _, e := range res.Edges {
		if e.Kind == uast.EdgeRoutesTo && e.Source == routes[0].ID && e.Target == fn.ID {
			found = true
		}
	}
	assert.True(t, found)
}

func TestJavaScriptExtraction(t *testing.T) {
	source := `import express from "express";

class Store extends Base {
  load(key) {
    if (!key) {
      throw new MissingKeyError("key required");
    }
    return this.cache.get(key);
  }
}

const app = express();
app.get("/health", healthCheck);

function healthCheck(req, res) {
  res.send("ok");
}
`
	res := extractSource(t, "src/server.js", parser.LangJavaScript, source)

	cls := findNode(res, uast.KindClass, "Store")
	require.NotNil(t, cls)
	assert.True(t, hasPending(res, "Base", uast.EdgeExtends))

	method := findNode(res, uast.KindMethod, "load")
	require.NotNil(t, method)
	assert.True(t, hasPending(res, "MissingKeyError", uast.EdgeRaises))

	assert.NotNil(t, findNode(res, uast.KindImport, "express"))

	routes := findNodes(res, uast.KindRoute)
	require.Len(t, routes, 1)
	assert.Equal(t, "/health", routes[0].Name)
	assert.True(t, hasPending(res, "healthCheck", uast.EdgeRoutesTo))

	fn := findNode(res, uast.KindFunction, "healthCheck")
	require.NotNil(t, fn)
}

func TestTypeScriptInterfaceAndArrow(t *testing.T) {
	source := `interface Repository extends Readable {
  get(id: string): string;
}

export const fetchAll = async (db: Database) => {
  const rows = await db.query("SELECT id FROM widgets WHERE deleted = 0");
  return rows;
};
`
	res := extractSource(t, "src/repo.ts", parser.LangTypeScript, source)

	iface := findNode(res, uast.KindClass, "Repository")
	require.NotNil(t, iface)
	assert.Equal(t, "interface", iface.Attributes["type"])
	assert.True(t, hasPending(res, "Readable", uast.EdgeExtends))

	fn := findNode(res, uast.KindFunction, "fetchAll")
	require.NotNil(t, fn)
	assert.Equal(t, "true", fn.Attributes["arrow"])

	queries := findNodes(res, uast.KindSQLQuery)
	require.Len(t, queries, 1)
}

func TestForLanguageUnknown(t *testing.T) {
	assert.Nil(t, ForLanguage(parser.LangUnknown))
	assert.Nil(t, ForLanguage(parser.LangRuby))
}

func TestParseErrorsRecorded(t *testing.T) {
	res := extractSource(t, "bad.py", parser.LangPython, "def broken(:\n    pass\n")
	assert.NotEmpty(t, res.Errors)
}
