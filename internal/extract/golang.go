package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codeprism/codeprism/pkg/parser"
	"github.com/codeprism/codeprism/pkg/uast"
)

type goExtractor struct{}

func newGoExtractor() *goExtractor { return &goExtractor{} }

func (e *goExtractor) Close() {}

func (e *goExtractor) Extract(res *parser.ParseResult) *uast.FileResult {
	b := newBuilder(res)
	root := res.Tree.RootNode()
	src := res.Source

	pkgName := "main"
	if pkg := firstChildOfType(root, "package_clause"); pkg != nil {
		if ident := firstChildOfType(pkg, "package_identifier"); ident != nil {
			pkgName = parser.NodeText(ident, src)
		}
	}

	moduleID := b.add(uast.KindModule, pkgName, parser.NodeSpan(root), map[string]string{
		"package": pkgName,
	})
	b.enter(moduleID, pkgName)
	e.walk(b, root, src)
	b.leave()

	return b.result
}

func (e *goExtractor) walk(b *builder, node *sitter.Node, src []byte) {
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		switch child.Type() {
		case "import_declaration":
			e.imports(b, child, src)
		case "function_declaration":
			e.function(b, child, src, uast.KindFunction)
		case "method_declaration":
			e.function(b, child, src, uast.KindMethod)
		case "type_declaration":
			e.types(b, child, src)
		case "var_declaration":
			e.vars(b, child, src, "var_spec")
		case "const_declaration":
			e.consts(b, child, src)
		default:
			e.walk(b, child, src)
		}
	}
}

func (e *goExtractor) imports(b *builder, node *sitter.Node, src []byte) {
	for _, spec := range parser.FindNodesByType(node, src, "import_spec") {
		pathNode := spec.ChildByFieldName("path")
		if pathNode == nil {
			continue
		}
		path := stripQuotes(parser.NodeText(pathNode, src))
		id := b.add(uast.KindImport, path, parser.NodeSpan(spec), nil)
		b.edge(b.owner(), id, uast.EdgeImports)
		b.pending(b.owner(), path, uast.EdgeImports)
	}
}

func (e *goExtractor) function(b *builder, node *sitter.Node, src []byte, kind uast.NodeKind) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := parser.NodeText(nameNode, src)

	attrs := map[string]string{}
	if kind == uast.KindMethod {
		if recv := node.ChildByFieldName("receiver"); recv != nil {
			recvType := receiverTypeName(recv, src)
			if recvType != "" {
				attrs["receiver"] = recvType
			}
		}
	}
	attrs["signature"] = signatureText(node, src)

	id := b.add(kind, name, parser.NodeSpan(node), attrs)
	b.enter(id, name)

	if params := node.ChildByFieldName("parameters"); params != nil {
		e.params(b, params, src)
	}
	if body := node.ChildByFieldName("body"); body != nil {
		e.body(b, body, src)
	}

	b.leave()
}

func (e *goExtractor) params(b *builder, node *sitter.Node, src []byte) {
	for _, decl := range parser.FindNodesByType(node, src, "parameter_declaration") {
		for j := range int(decl.NamedChildCount()) {
			child := decl.NamedChild(j)
			if child.Type() == "identifier" {
				b.add(uast.KindParameter, parser.NodeText(child, src), parser.NodeSpan(child), nil)
			}
		}
	}
}

func (e *goExtractor) types(b *builder, node *sitter.Node, src []byte) {
	for _, spec := range parser.FindNodesByType(node, src, "type_spec") {
		nameNode := spec.ChildByFieldName("name")
		typeNode := spec.ChildByFieldName("type")
		if nameNode == nil || typeNode == nil {
			continue
		}
		name := parser.NodeText(nameNode, src)

		switch typeNode.Type() {
		case "struct_type":
			id := b.add(uast.KindClass, name, parser.NodeSpan(spec), map[string]string{"type": "struct"})
			// Embedded fields become extends edges.
			for _, field := range parser.FindNodesByType(typeNode, src, "field_declaration") {
				if field.ChildByFieldName("name") == nil {
					if t := field.ChildByFieldName("type"); t != nil {
						b.pending(id, baseTypeName(parser.NodeText(t, src)), uast.EdgeExtends)
					}
				}
			}
		case "interface_type":
			id := b.add(uast.KindClass, name, parser.NodeSpan(spec), map[string]string{"type": "interface"})
			for j := range int(typeNode.NamedChildCount()) {
				child := typeNode.NamedChild(j)
				if child.Type() == "type_identifier" || child.Type() == "qualified_type" {
					b.pending(id, baseTypeName(parser.NodeText(child, src)), uast.EdgeExtends)
				}
			}
		default:
			b.add(uast.KindClass, name, parser.NodeSpan(spec), map[string]string{
				"type": typeNode.Type(),
			})
		}
	}
}

func (e *goExtractor) vars(b *builder, node *sitter.Node, src []byte, specType string) {
	for _, spec := range parser.FindNodesByType(node, src, specType) {
		nameNode := spec.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		b.add(uast.KindVariable, parser.NodeText(nameNode, src), parser.NodeSpan(spec), nil)
	}
}

func (e *goExtractor) consts(b *builder, node *sitter.Node, src []byte) {
	for _, spec := range parser.FindNodesByType(node, src, "const_spec") {
		nameNode := spec.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		b.add(uast.KindLiteral, parser.NodeText(nameNode, src), parser.NodeSpan(spec), map[string]string{
			"const": "true",
		})
	}
}

// body walks statements inside a function, recording calls, writes, reads,
// raises, and domain nodes (routes, SQL, events).
func (e *goExtractor) body(b *builder, node *sitter.Node, src []byte) {
	parser.WalkTyped(node, src, func(n *sitter.Node, nodeType string, _ []byte) bool {
		switch nodeType {
		case "call_expression":
			e.call(b, n, src)
		case "assignment_statement", "short_var_declaration":
			if left := n.ChildByFieldName("left"); left != nil {
				for _, ident := range parser.FindNodesByType(left, src, "identifier") {
					b.pending(b.owner(), parser.NodeText(ident, src), uast.EdgeWrites)
				}
			}
			if right := n.ChildByFieldName("right"); right != nil {
				for _, ident := range parser.FindNodesByType(right, src, "identifier") {
					b.pending(b.owner(), parser.NodeText(ident, src), uast.EdgeReads)
				}
			}
		case "interpreted_string_literal", "raw_string_literal":
			e.literal(b, n, src)
		}
		return true
	})
}

func (e *goExtractor) call(b *builder, node *sitter.Node, src []byte) {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return
	}

	var callee string
	switch fn.Type() {
	case "identifier":
		callee = parser.NodeText(fn, src)
	case "selector_expression":
		if field := fn.ChildByFieldName("field"); field != nil {
			callee = parser.NodeText(field, src)
		}
	default:
		return
	}
	if callee == "" || goBuiltins[callee] {
		if callee == "panic" {
			e.panicCall(b, node, src)
		}
		return
	}

	args := node.ChildByFieldName("arguments")
	firstArg := firstStringArg(args, src)

	// Route registration: router.Get("/path", handler).
	if fn.Type() == "selector_expression" && isRouteMethod(callee) && firstArg != "" && isPathLiteral(firstArg) {
		routeID := b.add(uast.KindRoute, firstArg, parser.NodeSpan(node), map[string]string{
			"method": strings.ToUpper(callee),
		})
		b.edge(b.owner(), routeID, uast.EdgeRoutesTo)
		if handler := secondArgName(args, src); handler != "" {
			b.pending(routeID, handler, uast.EdgeRoutesTo)
		}
		return
	}

	// Event emission: bus.Publish("user.created", ...).
	if eventCallNames[strings.ToLower(callee)] && firstArg != "" {
		eventID := b.add(uast.KindEvent, firstArg, parser.NodeSpan(node), nil)
		b.edge(b.owner(), eventID, uast.EdgeEmits)
		return
	}

	callID := b.add(uast.KindCall, callee, parser.NodeSpan(node), nil)
	b.edge(b.owner(), callID, uast.EdgeCalls)
	b.pending(b.owner(), callee, uast.EdgeCalls)
}

func (e *goExtractor) panicCall(b *builder, node *sitter.Node, src []byte) {
	args := node.ChildByFieldName("arguments")
	name := "panic"
	if args != nil && args.NamedChildCount() > 0 {
		arg := args.NamedChild(0)
		if arg.Type() == "identifier" {
			name = parser.NodeText(arg, src)
		}
	}
	b.pending(b.owner(), name, uast.EdgeRaises)
}

func (e *goExtractor) literal(b *builder, node *sitter.Node, src []byte) {
	text := stripQuotes(parser.NodeText(node, src))
	if looksLikeSQL(text) {
		id := b.add(uast.KindSQLQuery, firstLine(text), parser.NodeSpan(node), map[string]string{
			"query": text,
		})
		b.edge(b.owner(), id, uast.EdgeReads)
	}
}

// receiverTypeName extracts the type name from a method receiver list.
func receiverTypeName(recv *sitter.Node, src []byte) string {
	for _, t := range []string{"type_identifier", "pointer_type"} {
		nodes := parser.FindNodesByType(recv, src, t)
		if len(nodes) > 0 {
			return baseTypeName(parser.NodeText(nodes[len(nodes)-1], src))
		}
	}
	return ""
}

// baseTypeName strips pointers and package qualifiers from a type name.
func baseTypeName(name string) string {
	name = strings.TrimLeft(name, "*&")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// signatureText returns the declaration line of a function node.
func signatureText(node *sitter.Node, src []byte) string {
	text := parser.NodeText(node, src)
	if i := strings.IndexByte(text, '{'); i > 0 {
		text = text[:i]
	}
	return strings.TrimSpace(firstLine(text))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

func firstChildOfType(node *sitter.Node, nodeType string) *sitter.Node {
	for i := range int(node.NamedChildCount()) {
		child := node.NamedChild(i)
		if child.Type() == nodeType {
			return child
		}
		if found := firstChildOfType(child, nodeType); found != nil {
			return found
		}
	}
	return nil
}

// firstStringArg returns the unquoted text of the first string argument.
func firstStringArg(args *sitter.Node, src []byte) string {
	if args == nil || args.NamedChildCount() == 0 {
		return ""
	}
	arg := args.NamedChild(0)
	switch arg.Type() {
	case "interpreted_string_literal", "raw_string_literal", "string", "string_literal", "template_string":
		return stripQuotes(parser.NodeText(arg, src))
	}
	return ""
}

// secondArgName returns the identifier name of the second argument, if any.
func secondArgName(args *sitter.Node, src []byte) string {
	if args == nil || args.NamedChildCount() < 2 {
		return ""
	}
	arg := args.NamedChild(1)
	switch arg.Type() {
	case "identifier":
		return parser.NodeText(arg, src)
	case "selector_expression", "member_expression", "attribute":
		if field := arg.ChildByFieldName("field"); field != nil {
			return parser.NodeText(field, src)
		}
		if prop := arg.ChildByFieldName("property"); prop != nil {
			return parser.NodeText(prop, src)
		}
		if attr := arg.ChildByFieldName("attribute"); attr != nil {
			return parser.NodeText(attr, src)
		}
	}
	return ""
}

var goBuiltins = map[string]bool{
	"append": true, "cap": true, "close": true, "complex": true,
	"copy": true, "delete": true, "imag": true, "len": true,
	"make": true, "new": true, "panic": true, "print": true,
	"println": true, "real": true, "recover": true, "clear": true,
	"min": true, "max": true,
}
