package extract

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codeprism/codeprism/pkg/parser"
	"github.com/codeprism/codeprism/pkg/uast"
)

// scriptExtractor covers JavaScript, TypeScript, and TSX. The three grammars
// share node vocabulary for everything extracted here.
type scriptExtractor struct{}

func newScriptExtractor() *scriptExtractor { return &scriptExtractor{} }

func (e *scriptExtractor) Close() {}

func (e *scriptExtractor) Extract(res *parser.ParseResult) *uast.FileResult {
	b := newBuilder(res)
	root := res.Tree.RootNode()
	src := res.Source

	modName := strings.TrimSuffix(filepath.Base(res.Path), filepath.Ext(res.Path))
	moduleID := b.add(uast.KindModule, modName, parser.NodeSpan(root), nil)
	b.enter(moduleID, modName)
	e.program(b, root, src)
	b.leave()

	return b.result
}

func (e *scriptExtractor) program(b *builder, node *sitter.Node, src []byte) {
	for i := range int(node.NamedChildCount()) {
		child := node.NamedChild(i)
		switch child.Type() {
		case "import_statement":
			e.importStmt(b, child, src)
		case "class_declaration", "abstract_class_declaration":
			e.class(b, child, src)
		case "function_declaration", "generator_function_declaration":
			e.function(b, child, src)
		case "lexical_declaration", "variable_declaration":
			e.variables(b, child, src)
		case "interface_declaration":
			e.tsInterface(b, child, src)
		case "export_statement":
			e.export(b, child, src)
		case "expression_statement":
			for _, call := range parser.FindNodesByType(child, src, "call_expression") {
				e.call(b, call, src)
			}
		default:
			if child.NamedChildCount() > 0 {
				e.program(b, child, src)
			}
		}
	}
}

func (e *scriptExtractor) export(b *builder, node *sitter.Node, src []byte) {
	for i := range int(node.NamedChildCount()) {
		child := node.NamedChild(i)
		switch child.Type() {
		case "class_declaration", "abstract_class_declaration":
			e.class(b, child, src)
		case "function_declaration", "generator_function_declaration":
			e.function(b, child, src)
		case "lexical_declaration", "variable_declaration":
			e.variables(b, child, src)
		case "interface_declaration":
			e.tsInterface(b, child, src)
		}
	}
}

func (e *scriptExtractor) importStmt(b *builder, node *sitter.Node, src []byte) {
	source := node.ChildByFieldName("source")
	if source == nil {
		return
	}
	path := stripQuotes(parser.NodeText(source, src))
	id := b.add(uast.KindImport, path, parser.NodeSpan(node), nil)
	b.edge(b.owner(), id, uast.EdgeImports)
	b.pending(b.owner(), path, uast.EdgeImports)
}

func (e *scriptExtractor) class(b *builder, node *sitter.Node, src []byte) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := parser.NodeText(nameNode, src)
	id := b.add(uast.KindClass, name, parser.NodeSpan(node), nil)

	// extends goes through class_heritage; TS implements lives there too.
	for _, heritage := range parser.FindNodesByType(node, src, "class_heritage") {
		e.heritage(b, heritage, src, id)
	}
	for _, clause := range parser.FindNodesByType(node, src, "extends_clause") {
		for j := range int(clause.NamedChildCount()) {
			super := clause.NamedChild(j)
			if super.Type() == "identifier" || super.Type() == "member_expression" {
				b.pending(id, baseTypeName(parser.NodeText(super, src)), uast.EdgeExtends)
			}
		}
	}
	for _, clause := range parser.FindNodesByType(node, src, "implements_clause") {
		for j := range int(clause.NamedChildCount()) {
			iface := clause.NamedChild(j)
			b.pending(id, baseTypeName(parser.NodeText(iface, src)), uast.EdgeImplements)
		}
	}

	if body := node.ChildByFieldName("body"); body != nil {
		b.enter(id, name)
		e.classBody(b, body, src)
		b.leave()
	}
}

func (e *scriptExtractor) heritage(b *builder, node *sitter.Node, src []byte, classID uast.NodeID) {
	// JavaScript grammar: class_heritage wraps the superclass expression
	// directly, without extends_clause.
	for i := range int(node.NamedChildCount()) {
		child := node.NamedChild(i)
		switch child.Type() {
		case "identifier", "member_expression":
			b.pending(classID, baseTypeName(parser.NodeText(child, src)), uast.EdgeExtends)
		}
	}
}

func (e *scriptExtractor) classBody(b *builder, node *sitter.Node, src []byte) {
	for i := range int(node.NamedChildCount()) {
		member := node.NamedChild(i)
		switch member.Type() {
		case "method_definition":
			e.method(b, member, src)
		case "public_field_definition", "field_definition":
			if name := member.ChildByFieldName("name"); name != nil {
				b.add(uast.KindVariable, parser.NodeText(name, src), parser.NodeSpan(member), nil)
			}
		}
	}
}

func (e *scriptExtractor) method(b *builder, node *sitter.Node, src []byte) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := parser.NodeText(nameNode, src)

	id := b.add(uast.KindMethod, name, parser.NodeSpan(node), map[string]string{
		"signature": signatureText(node, src),
	})
	b.enter(id, name)
	if params := node.ChildByFieldName("parameters"); params != nil {
		e.params(b, params, src)
	}
	if body := node.ChildByFieldName("body"); body != nil {
		e.body(b, body, src)
	}
	b.leave()
}

func (e *scriptExtractor) function(b *builder, node *sitter.Node, src []byte) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := parser.NodeText(nameNode, src)

	id := b.add(uast.KindFunction, name, parser.NodeSpan(node), map[string]string{
		"signature": signatureText(node, src),
	})
	b.enter(id, name)
	if params := node.ChildByFieldName("parameters"); params != nil {
		e.params(b, params, src)
	}
	if body := node.ChildByFieldName("body"); body != nil {
		e.body(b, body, src)
	}
	b.leave()
}

func (e *scriptExtractor) params(b *builder, node *sitter.Node, src []byte) {
	for i := range int(node.NamedChildCount()) {
		param := node.NamedChild(i)
		var ident *sitter.Node
		switch param.Type() {
		case "identifier":
			ident = param
		case "required_parameter", "optional_parameter":
			ident = firstChildOfType(param, "identifier")
		case "assignment_pattern":
			if left := param.ChildByFieldName("left"); left != nil && left.Type() == "identifier" {
				ident = left
			}
		}
		if ident == nil {
			continue
		}
		b.add(uast.KindParameter, parser.NodeText(ident, src), parser.NodeSpan(param), nil)
	}
}

func (e *scriptExtractor) tsInterface(b *builder, node *sitter.Node, src []byte) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := parser.NodeText(nameNode, src)
	id := b.add(uast.KindClass, name, parser.NodeSpan(node), map[string]string{
		"type": "interface",
	})
	for _, clause := range parser.FindNodesByType(node, src, "extends_type_clause") {
		for j := range int(clause.NamedChildCount()) {
			super := clause.NamedChild(j)
			b.pending(id, baseTypeName(parser.NodeText(super, src)), uast.EdgeExtends)
		}
	}
}

// variables handles top-level const/let/var declarations. A declarator whose
// value is an arrow function or function expression becomes a Function node.
func (e *scriptExtractor) variables(b *builder, node *sitter.Node, src []byte) {
	for _, decl := range parser.FindNodesByType(node, src, "variable_declarator") {
		nameNode := decl.ChildByFieldName("name")
		if nameNode == nil || nameNode.Type() != "identifier" {
			continue
		}
		name := parser.NodeText(nameNode, src)
		value := decl.ChildByFieldName("value")

		if value != nil && (value.Type() == "arrow_function" || value.Type() == "function_expression" || value.Type() == "function") {
			id := b.add(uast.KindFunction, name, parser.NodeSpan(decl), map[string]string{
				"arrow": "true",
			})
			b.enter(id, name)
			if params := value.ChildByFieldName("parameters"); params != nil {
				e.params(b, params, src)
			}
			if body := value.ChildByFieldName("body"); body != nil {
				e.body(b, body, src)
			}
			b.leave()
			continue
		}

		b.add(uast.KindVariable, name, parser.NodeSpan(decl), nil)
		if value != nil {
			for _, call := range parser.FindNodesByType(value, src, "call_expression") {
				e.call(b, call, src)
			}
		}
	}
}

func (e *scriptExtractor) body(b *builder, node *sitter.Node, src []byte) {
	parser.WalkTyped(node, src, func(n *sitter.Node, nodeType string, _ []byte) bool {
		switch nodeType {
		case "call_expression":
			e.call(b, n, src)
		case "assignment_expression":
			if left := n.ChildByFieldName("left"); left != nil {
				switch left.Type() {
				case "identifier":
					b.pending(b.owner(), parser.NodeText(left, src), uast.EdgeWrites)
				case "member_expression":
					if prop := left.ChildByFieldName("property"); prop != nil {
						b.pending(b.owner(), parser.NodeText(prop, src), uast.EdgeWrites)
					}
				}
			}
			if right := n.ChildByFieldName("right"); right != nil {
				for _, ident := range parser.FindNodesByType(right, src, "identifier") {
					b.pending(b.owner(), parser.NodeText(ident, src), uast.EdgeReads)
				}
			}
		case "throw_statement":
			e.throw(b, n, src)
		case "string", "template_string":
			e.literal(b, n, src)
		}
		return true
	})
}

func (e *scriptExtractor) call(b *builder, node *sitter.Node, src []byte) {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return
	}

	var callee string
	isMember := false
	switch fn.Type() {
	case "identifier":
		callee = parser.NodeText(fn, src)
	case "member_expression":
		isMember = true
		if prop := fn.ChildByFieldName("property"); prop != nil {
			callee = parser.NodeText(prop, src)
		}
	default:
		return
	}
	if callee == "" || scriptBuiltins[callee] {
		return
	}

	args := node.ChildByFieldName("arguments")
	firstArg := firstStringArg(args, src)

	// Route registration: app.get("/users", handler).
	if isMember && isRouteMethod(callee) && firstArg != "" && isPathLiteral(firstArg) {
		routeID := b.add(uast.KindRoute, firstArg, parser.NodeSpan(node), map[string]string{
			"method": strings.ToUpper(callee),
		})
		b.edge(b.owner(), routeID, uast.EdgeRoutesTo)
		if handler := secondArgName(args, src); handler != "" {
			b.pending(routeID, handler, uast.EdgeRoutesTo)
		}
		return
	}

	if eventCallNames[strings.ToLower(callee)] && firstArg != "" {
		eventID := b.add(uast.KindEvent, firstArg, parser.NodeSpan(node), nil)
		b.edge(b.owner(), eventID, uast.EdgeEmits)
		return
	}

	callID := b.add(uast.KindCall, callee, parser.NodeSpan(node), nil)
	b.edge(b.owner(), callID, uast.EdgeCalls)
	b.pending(b.owner(), callee, uast.EdgeCalls)
}

func (e *scriptExtractor) throw(b *builder, node *sitter.Node, src []byte) {
	name := "Error"
	if node.NamedChildCount() > 0 {
		arg := node.NamedChild(0)
		switch arg.Type() {
		case "new_expression":
			if ctor := arg.ChildByFieldName("constructor"); ctor != nil {
				name = baseTypeName(parser.NodeText(ctor, src))
			}
		case "identifier":
			name = parser.NodeText(arg, src)
		}
	}
	b.pending(b.owner(), name, uast.EdgeRaises)
}

func (e *scriptExtractor) literal(b *builder, node *sitter.Node, src []byte) {
	text := stripQuotes(parser.NodeText(node, src))
	if looksLikeSQL(text) {
		id := b.add(uast.KindSQLQuery, firstLine(text), parser.NodeSpan(node), map[string]string{
			"query": text,
		})
		b.edge(b.owner(), id, uast.EdgeReads)
	}
}

var scriptBuiltins = map[string]bool{
	"require": true, "log": true, "error": true, "warn": true,
	"info": true, "debug": true, "parse": true, "stringify": true,
	"then": true, "catch": true, "finally": true,
}
