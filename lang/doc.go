// Package lang compiles Texus generator templates and renders randomized
// text from them.
//
// # Templates
//
// A template is a list of items. An item header starts at column zero and
// its options are the lines indented beneath it; generating an item picks
// one option at random, weighted by its optional prefix:
//
//	$name = "Alice"
//	$const greeting : str = "Hello"
//
//	main
//	    $greeting, $name! Today you meet #animal.
//	    ^3 #*3`第$i项\n`
//
//	animal
//	    cat
//	    ^[$mood > 2] dog
//	    #(owl|^2 crow|raven)
//
// Lines starting with "$" at column zero declare variables. Generation
// starts at the item named "main", or at the first item when there is none.
//
// # Inline syntax
//
//	$name           variable
//	#item #"a b"    item reference ($"a b" is also an item reference)
//	#[expr]         expression: + - * / % comparisons and/or/not, a ? b : c
//	#{$x += 1}      side effect: ++ -- = += -= *= /=, renders nothing
//	#(a|^2 b)       inline random choice
//	#?([c] a | b)   first branch whose condition holds, else the last option
//	#*N`body`       repeat; $i or #i is the 1-based index inside the body
//	#*[expr]item    repeat an item a computed number of times
//	\$ \# \n \t \s  escapes
//
// A line indented beneath an option holds item definitions visible only
// while that option is evaluated. Comments use // and /* */.
//
// # Evaluation
//
// [ParseString] returns an immutable [AST]. [AST.Generate] renders it
// against a fresh [Context] per call, so one AST may serve concurrent
// generations. Expression failures render inline as "[expr error: ...]" and
// unknown items as "[undefined: name]"; exceeding the recursion limit or
// cancelling the context aborts generation with a [*GenerationError].
//
// [Resolve] decides whether a cached [Artifact] can be reused for a
// [Template] by comparing source stamps.
package lang
