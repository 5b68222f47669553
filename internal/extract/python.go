package extract

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codeprism/codeprism/pkg/parser"
	"github.com/codeprism/codeprism/pkg/uast"
)

type pythonExtractor struct{}

func newPythonExtractor() *pythonExtractor { return &pythonExtractor{} }

func (e *pythonExtractor) Close() {}

func (e *pythonExtractor) Extract(res *parser.ParseResult) *uast.FileResult {
	b := newBuilder(res)
	root := res.Tree.RootNode()

	modName := strings.TrimSuffix(filepath.Base(res.Path), filepath.Ext(res.Path))
	moduleID := b.add(uast.KindModule, modName, parser.NodeSpan(root), nil)
	b.enter(moduleID, modName)
	e.block(b, root, res.Source, false)
	b.leave()

	return b.result
}

// block walks the direct statements of a module or class suite. inClass
// controls whether function definitions become methods and assignments
// become fields.
func (e *pythonExtractor) block(b *builder, node *sitter.Node, src []byte, inClass bool) {
	for i := range int(node.NamedChildCount()) {
		child := node.NamedChild(i)
		switch child.Type() {
		case "import_statement", "import_from_statement":
			e.imports(b, child, src)
		case "class_definition":
			e.class(b, child, src, nil)
		case "function_definition":
			e.function(b, child, src, inClass, nil)
		case "decorated_definition":
			e.decorated(b, child, src, inClass)
		case "expression_statement", "assignment":
			e.assignment(b, child, src, inClass)
		default:
			// Nested blocks (if/try at module level) can still define things.
			if child.NamedChildCount() > 0 {
				e.block(b, child, src, inClass)
			}
		}
	}
}

func (e *pythonExtractor) imports(b *builder, node *sitter.Node, src []byte) {
	switch node.Type() {
	case "import_statement":
		for i := range int(node.NamedChildCount()) {
			child := node.NamedChild(i)
			name := ""
			switch child.Type() {
			case "dotted_name":
				name = parser.NodeText(child, src)
			case "aliased_import":
				if n := child.ChildByFieldName("name"); n != nil {
					name = parser.NodeText(n, src)
				}
			}
			if name == "" {
				continue
			}
			id := b.add(uast.KindImport, name, parser.NodeSpan(node), nil)
			b.edge(b.owner(), id, uast.EdgeImports)
			b.pending(b.owner(), name, uast.EdgeImports)
		}
	case "import_from_statement":
		modNode := node.ChildByFieldName("module_name")
		if modNode == nil {
			return
		}
		mod := parser.NodeText(modNode, src)
		id := b.add(uast.KindImport, mod, parser.NodeSpan(node), map[string]string{
			"from": mod,
		})
		b.edge(b.owner(), id, uast.EdgeImports)
		b.pending(b.owner(), mod, uast.EdgeImports)
	}
}

func (e *pythonExtractor) decorated(b *builder, node *sitter.Node, src []byte, inClass bool) {
	var decorators []string
	for i := range int(node.NamedChildCount()) {
		child := node.NamedChild(i)
		if child.Type() == "decorator" {
			decorators = append(decorators, decoratorName(child, src))
		}
	}
	def := node.ChildByFieldName("definition")
	if def == nil {
		return
	}
	switch def.Type() {
	case "function_definition":
		e.function(b, def, src, inClass, decorators)
	case "class_definition":
		e.class(b, def, src, decorators)
	}
}

// decoratorName returns the dotted name of a decorator, without arguments.
func decoratorName(node *sitter.Node, src []byte) string {
	text := strings.TrimPrefix(parser.NodeText(node, src), "@")
	if i := strings.IndexByte(text, '('); i > 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

func (e *pythonExtractor) class(b *builder, node *sitter.Node, src []byte, decorators []string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := parser.NodeText(nameNode, src)

	var attrs map[string]string
	if len(decorators) > 0 {
		attrs = map[string]string{"decorators": strings.Join(decorators, ",")}
	}
	id := b.add(uast.KindClass, name, parser.NodeSpan(node), attrs)

	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		for i := range int(supers.NamedChildCount()) {
			super := supers.NamedChild(i)
			switch super.Type() {
			case "identifier", "attribute":
				b.pending(id, baseTypeName(parser.NodeText(super, src)), uast.EdgeExtends)
			case "keyword_argument":
				// metaclass=... and friends are not inheritance.
			}
		}
	}

	if body := node.ChildByFieldName("body"); body != nil {
		b.enter(id, name)
		e.block(b, body, src, true)
		b.leave()
	}
}

func (e *pythonExtractor) function(b *builder, node *sitter.Node, src []byte, inClass bool, decorators []string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := parser.NodeText(nameNode, src)

	kind := uast.KindFunction
	if inClass {
		kind = uast.KindMethod
	}

	attrs := map[string]string{"signature": signatureText(node, src)}
	if len(decorators) > 0 {
		attrs["decorators"] = strings.Join(decorators, ",")
	}
	id := b.add(kind, name, parser.NodeSpan(node), attrs)
	b.enter(id, name)

	if params := node.ChildByFieldName("parameters"); params != nil {
		e.params(b, params, src)
	}

	// Route decorators: @app.get("/users"), @router.route("/x").
	for _, dec := range decorators {
		e.routeDecorator(b, dec, node, src, id)
	}

	if body := node.ChildByFieldName("body"); body != nil {
		e.body(b, body, src)
	}

	b.leave()
}

func (e *pythonExtractor) params(b *builder, node *sitter.Node, src []byte) {
	for i := range int(node.NamedChildCount()) {
		param := node.NamedChild(i)
		var ident *sitter.Node
		switch param.Type() {
		case "identifier":
			ident = param
		case "typed_parameter", "default_parameter", "typed_default_parameter":
			ident = firstChildOfType(param, "identifier")
		}
		if ident == nil {
			continue
		}
		name := parser.NodeText(ident, src)
		if name == "self" || name == "cls" {
			continue
		}
		b.add(uast.KindParameter, name, parser.NodeSpan(param), nil)
	}
}

// routeDecorator recognizes framework route decorators by their method
// segment and creates a route node wired to the decorated function.
func (e *pythonExtractor) routeDecorator(b *builder, dec string, fn *sitter.Node, src []byte, fnID uast.NodeID) {
	segs := strings.Split(dec, ".")
	method := segs[len(segs)-1]
	if !isRouteMethod(method) {
		return
	}
	// Recover the path argument from the decorator call above the function.
	parent := fn.Parent()
	if parent == nil || parent.Type() != "decorated_definition" {
		return
	}
	for i := range int(parent.NamedChildCount()) {
		d := parent.NamedChild(i)
		if d.Type() != "decorator" {
			continue
		}
		if decoratorName(d, src) != dec {
			continue
		}
		call := firstChildOfType(d, "call")
		if call == nil {
			continue
		}
		path := firstStringArg(call.ChildByFieldName("arguments"), src)
		if path == "" || !isPathLiteral(path) {
			continue
		}
		routeID := b.add(uast.KindRoute, path, parser.NodeSpan(d), map[string]string{
			"method": strings.ToUpper(method),
		})
		b.edge(routeID, fnID, uast.EdgeRoutesTo)
	}
}

func (e *pythonExtractor) assignment(b *builder, node *sitter.Node, src []byte, inClass bool) {
	assign := node
	if node.Type() == "expression_statement" {
		assign = firstChildOfType(node, "assignment")
		if assign == nil {
			// Bare call at module/class level.
			if call := firstChildOfType(node, "call"); call != nil {
				e.call(b, call, src)
			}
			return
		}
	}
	left := assign.ChildByFieldName("left")
	if left != nil && left.Type() == "identifier" {
		name := parser.NodeText(left, src)
		if !inClass || !strings.HasPrefix(name, "_") {
			b.add(uast.KindVariable, name, parser.NodeSpan(assign), nil)
		}
	}
	if right := assign.ChildByFieldName("right"); right != nil {
		for _, call := range parser.FindNodesByType(right, src, "call") {
			e.call(b, call, src)
		}
	}
}

func (e *pythonExtractor) body(b *builder, node *sitter.Node, src []byte) {
	parser.WalkTyped(node, src, func(n *sitter.Node, nodeType string, _ []byte) bool {
		switch nodeType {
		case "function_definition":
			// Nested defs handled as closures under the same owner.
			e.function(b, n, src, false, nil)
			return false
		case "class_definition":
			e.class(b, n, src, nil)
			return false
		case "call":
			e.call(b, n, src)
		case "assignment":
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
		case "raise_statement":
			e.raise(b, n, src)
		case "string":
			e.literal(b, n, src)
		}
		return true
	})
}

func (e *pythonExtractor) call(b *builder, node *sitter.Node, src []byte) {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return
	}

	var callee string
	switch fn.Type() {
	case "identifier":
		callee = parser.NodeText(fn, src)
	case "attribute":
		if attr := fn.ChildByFieldName("attribute"); attr != nil {
			callee = parser.NodeText(attr, src)
		}
	default:
		return
	}
	if callee == "" || pythonBuiltins[callee] {
		return
	}

	args := node.ChildByFieldName("arguments")
	firstArg := firstStringArg(args, src)

	if eventCallNames[strings.ToLower(callee)] && firstArg != "" {
		eventID := b.add(uast.KindEvent, firstArg, parser.NodeSpan(node), nil)
		b.edge(b.owner(), eventID, uast.EdgeEmits)
		return
	}

	callID := b.add(uast.KindCall, callee, parser.NodeSpan(node), nil)
	b.edge(b.owner(), callID, uast.EdgeCalls)
	b.pending(b.owner(), callee, uast.EdgeCalls)
}

func (e *pythonExtractor) raise(b *builder, node *sitter.Node, src []byte) {
	name := "Exception"
	if node.NamedChildCount() > 0 {
		arg := node.NamedChild(0)
		switch arg.Type() {
		case "call":
			if fn := arg.ChildByFieldName("function"); fn != nil {
				name = baseTypeName(parser.NodeText(fn, src))
			}
		case "identifier", "attribute":
			name = baseTypeName(parser.NodeText(arg, src))
		}
	}
	b.pending(b.owner(), name, uast.EdgeRaises)
}

func (e *pythonExtractor) literal(b *builder, node *sitter.Node, src []byte) {
	text := stripQuotes(parser.NodeText(node, src))
	if looksLikeSQL(text) {
		id := b.add(uast.KindSQLQuery, firstLine(text), parser.NodeSpan(node), map[string]string{
			"query": text,
		})
		b.edge(b.owner(), id, uast.EdgeReads)
	}
}

var pythonBuiltins = map[string]bool{
	"print": true, "len": true, "range": true, "str": true, "int": true,
	"float": true, "bool": true, "list": true, "dict": true, "set": true,
	"tuple": true, "isinstance": true, "super": true, "type": true,
	"enumerate": true, "zip": true, "map": true, "filter": true,
	"sorted": true, "open": true, "getattr": true, "setattr": true,
	"hasattr": true, "repr": true, "format": true, "abs": true,
	"min": true, "max": true, "sum": true, "any": true, "all": true,
}
