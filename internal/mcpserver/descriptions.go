package mcpserver

// Tool descriptions with interpretation guidance for LLMs. Each one
// explains what the tool does, when to reach for it, and how to read the
// result.

func describeRepositoryStats() string {
	return `Summarizes the indexed repository: file, node, and edge counts from the code graph, plus git metadata when available.

USE WHEN:
- Getting oriented in an unfamiliar codebase
- Checking what the index currently covers before running other tools
- Confirming the server indexed the repository you expect

INTERPRETING RESULTS:
- stats.pending > 0 means some references could not be resolved to a definition (external libraries, dynamic dispatch)
- parse_errors counts files that produced syntax errors; their symbols may be incomplete
- by_kind and by_edge_kind show the shape of the graph (call-heavy vs import-heavy)

RETURNED:
- root path, graph stats (files, nodes, edges, pending, by_kind, by_edge_kind, by_language, parse_errors)
- git branch, head commit, commit and contributor counts when the repository is under git`
}

func describeContentStats() string {
	return `Counts files, lines, and bytes per language across the indexed repository.

USE WHEN:
- Sizing a codebase before planning work
- Seeing the language mix at a glance

RETURNED:
- Totals plus a per-language breakdown sorted by line count`
}

func describeFindFiles() string {
	return `Finds indexed files matching a glob pattern.

USE WHEN:
- Locating files by name or extension (e.g. **/*.py, cmd/*.go, user_service.*)

INTERPRETING RESULTS:
- Patterns match repository-relative paths; a bare pattern also matches the base name
- Only files the indexer accepted (supported language, not excluded) are searched

RETURNED:
- Matching relative paths, up to the limit`
}

func describeSearchContent() string {
	return `Searches file contents line by line with a regular expression.

USE WHEN:
- Finding string literals, comments, or constructs the symbol graph does not model
- Grep-style exploration scoped to indexed source files

INTERPRETING RESULTS:
- Case-insensitive unless case_sensitive is set
- Matches stop at the limit; a result count equal to the limit usually means there are more

RETURNED:
- file, line number, and trimmed line text per match`
}

func describeSearchSymbols() string {
	return `Searches the code graph for symbols by name.

USE WHEN:
- Locating a definition before calling explain_symbol, find_references, or trace tools
- Listing all symbols of a kind (e.g. every route or class)

INTERPRETING RESULTS:
- Modes: exact (name equality), contains (substring, default), regex
- Matching is case-insensitive in exact and contains modes
- kinds filters to node kinds: module, class, function, method, variable, route, sql_query, event

RETURNED:
- name, qualified name, kind, file, and line per symbol`
}

func describeExplainSymbol() string {
	return `Explains one symbol: where it is defined, its signature and attributes, and how connected it is.

USE WHEN:
- Understanding what a function, class, or variable is before changing it
- Checking how widely used a symbol is (reference count) and what it depends on

INTERPRETING RESULTS:
- references counts incoming edges (callers, readers, subclasses); dependencies counts outgoing edges
- For classes, supertypes and subtypes from the inheritance closure are included
- Attributes carry language-specific detail: receiver types, decorators, route methods

RETURNED:
- symbol identity, signature, attributes, full span, reference and dependency counts`
}

func describeFindReferences() string {
	return `Finds everything that references a symbol (callers, readers, writers, importers, subclasses).

USE WHEN:
- Assessing blast radius before renaming or changing a signature
- Finding callers of a function or subclasses of a class

INTERPRETING RESULTS:
- Each reference carries the edge kind (calls, reads, writes, imports, extends, implements, ...)
- Zero references can mean dead code, or callers the static index cannot see (reflection, external packages)

RETURNED:
- referencing symbols with edge kind, file, and line`
}

func describeFindDependencies() string {
	return `Lists what a symbol directly depends on (calls, reads, writes, imports).

USE WHEN:
- Understanding what a function touches before extracting or moving it
- Listing a module's imports

RETURNED:
- depended-on symbols with edge kind, file, and line`
}

func describeTransitiveDependencies() string {
	return `Walks a symbol's dependencies transitively, breadth-first, up to a depth limit.

USE WHEN:
- Measuring how deep a change could propagate
- Finding indirect dependencies a direct listing misses

INTERPRETING RESULTS:
- depth is the shortest edge distance from the origin
- cycles_detected means the traversal found a path back toward the origin; the result is still complete
- Large results at low depth indicate a highly coupled symbol

RETURNED:
- reached symbols with their depth, plus a cycle flag`
}

func describeTracePath() string {
	return `Finds the shortest path between two symbols along graph edges.

USE WHEN:
- Answering "how does A end up calling B?"
- Verifying or refuting an assumed dependency between components

INTERPRETING RESULTS:
- found=false means no path within max_depth along the chosen edge kinds; try more edge kinds or a higher depth
- Steps list the symbols along the path in order, origin first

RETURNED:
- found flag and the ordered path`
}

func describeTraceDataFlow() string {
	return `Traces where a value flows (forward) or where it comes from (backward) along reads, writes, and calls.

USE WHEN:
- Following user input toward a sink (security review)
- Finding what feeds a suspicious variable

INTERPRETING RESULTS:
- forward follows outgoing reads/writes/calls from the symbol; backward follows incoming ones
- This is a graph slice, not a dataflow proof: it over-approximates through calls

RETURNED:
- reached symbols with depth, in traversal order`
}

func describeTraceInheritance() string {
	return `Shows a class's inheritance: transitive supertypes, direct subtypes, and implemented interfaces.

USE WHEN:
- Understanding a type hierarchy before overriding or refactoring
- Finding all implementations of an interface (look at its subtypes)

RETURNED:
- supertypes (transitive), subtypes (direct), implements`
}

func describeComplexity() string {
	return `Measures cyclomatic and cognitive complexity of every function in the repository.

USE WHEN:
- Finding refactoring candidates
- Assessing how testable a module is

INTERPRETING RESULTS:
- Cyclomatic > 10: many paths, consider splitting; > 20: strong refactoring candidate
- Cognitive > 15: hard to follow; nesting weighs more than flat branching
- max_nesting > 4: deeply nested code, consider early returns

RETURNED:
- Per-function cyclomatic, cognitive, max_nesting, lines; per-file rollups; hotspot list over the threshold; averages`
}

func describeAPISurface() string {
	return `Inventories the public API: exported symbols per file with usage counts, plus PageRank hotspots.

USE WHEN:
- Reviewing what a package exposes versus what is actually used
- Finding over-exposed API (public symbols nothing references)

INTERPRETING RESULTS:
- unused_public symbols are candidates for unexporting, but may be external API
- public_ratio near 1.0 suggests missing encapsulation
- Hotspots rank callables by PageRank over the call graph: high scores are load-bearing code

RETURNED:
- per-file public symbols with reference counts, public/private totals, hotspot ranking`
}

func describeSecurity() string {
	return `Scans source lines for insecure constructs: hardcoded secrets, SQL built by concatenation or formatting, eval, weak hashes, shell injection, insecure randomness, disabled TLS verification.

USE WHEN:
- A first-pass security review of a codebase
- Checking a specific worry (e.g. SQL injection surface) quickly

INTERPRETING RESULTS:
- Pattern-based: expect false positives; every finding needs human review
- severity high findings (secrets, injection, eval) deserve immediate attention
- Comment lines are skipped

RETURNED:
- findings with rule, severity, file, line, snippet; counts by rule and severity`
}

func describePerformance() string {
	return `Flags structurally expensive code: deeply nested loops, query/IO calls inside loops, string building by repeated concatenation.

USE WHEN:
- Hunting N+1 query patterns
- Reviewing algorithmic hot paths before optimization

INTERPRETING RESULTS:
- nested-loops fires at nesting depth 3; genuine O(n^3) work or just structure, verify the bounds
- call-in-loop matches callee names that usually mean a round trip (query, fetch, readfile, ...)

RETURNED:
- findings with rule, file, line, snippet; counts by rule`
}

func describePatterns() string {
	return `Detects common design patterns from graph structure and naming: singleton, factory, observer, constructor functions.

USE WHEN:
- Mapping the architecture of an unfamiliar codebase
- Checking whether a claimed pattern is actually wired up

INTERPRETING RESULTS:
- Heuristic: each instance carries a confidence and the evidence that triggered it
- constructor-function requires actual call sites, so dead NewX helpers don't appear

RETURNED:
- pattern instances with node, related members, confidence, evidence; counts by pattern`
}

func describeUnusedCode() string {
	return `Finds functions, methods, and classes with no incoming references.

USE WHEN:
- Cleaning up after a feature removal
- Reducing maintenance surface before a refactor

INTERPRETING RESULTS:
- Confidence reflects how likely the symbol is truly dead: entry points, test functions, dunder methods, and exported API score low
- Static analysis cannot see reflective or external callers; treat results as candidates

RETURNED:
- symbols with confidence and the reason for the score, sorted most-confident first`
}

func describeDuplicates() string {
	return `Finds copy-pasted blocks by fingerprinting windows of normalized lines.

USE WHEN:
- Locating extraction candidates for shared helpers
- Measuring duplication before and after a cleanup

INTERPRETING RESULTS:
- Normalization strips comments, trivial lines, and whitespace, so cosmetic edits don't hide clones
- min_lines sets the smallest reported block (default 6 normalized lines)
- ratio is duplicated lines over total lines

RETURNED:
- clone groups with file/line instances, duplicated line counts, overall ratio`
}

func describeDecorators() string {
	return `Inventories decorator and annotation usage across the codebase (Python decorators, and decorator attributes captured for other languages).

USE WHEN:
- Finding every endpoint, fixture, or cached function registered via decorator
- Auditing framework usage (e.g. which functions use @retry)

RETURNED:
- decorators grouped by name with usage sites, most-used first`
}

func describeRoutes() string {
	return `Lists HTTP routes discovered during extraction: method, path, and handler.

USE WHEN:
- Mapping a service's API surface
- Finding the handler behind a path

INTERPRETING RESULTS:
- Routes come from framework idioms the extractors recognize (router.Get("/x", h), @app.get("/x"), app.post("/x", fn))
- A missing handler means the registration's second argument wasn't a resolvable symbol

RETURNED:
- routes sorted by path with method, file, line, handler`
}

func describeSQLQueries() string {
	return `Lists SQL statements found in string literals, classified by statement type.

USE WHEN:
- Auditing raw SQL usage
- Finding queries that touch a table (combine with search_content)

INTERPRETING RESULTS:
- Detection is literal-based: queries built dynamically may be missed or truncated
- Pair with analyze_security for concatenation and format-string injection findings

RETURNED:
- queries with statement type, text, file, line; counts by statement`
}

func describeEvents() string {
	return `Lists events emitted through publish/emit/dispatch style calls, with their emitters.

USE WHEN:
- Tracing event-driven flows that the call graph doesn't connect
- Finding every emitter of a topic

RETURNED:
- events sorted by name with file, line, and emitting symbols`
}
